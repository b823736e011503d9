// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/gaze_selector/internal/config"
	"github.com/relabs-tech/gaze_selector/internal/gaze"
	"github.com/relabs-tech/gaze_selector/internal/orientation"
	"github.com/relabs-tech/gaze_selector/internal/render"
	"github.com/relabs-tech/gaze_selector/internal/ui"
)

// settingsFromConfig builds controller settings. The screen centre comes
// from the layout viewport, the axis from the layout when it names one.
func settingsFromConfig(cfg *config.Config, layout ui.Layout) gaze.Settings {
	axis := gaze.ParseAxis(cfg.TrackedAxis)
	if layout.Axis != "" {
		axis = layout.TrackedAxis()
	}

	return gaze.Settings{
		Factor:          cfg.SensitivityFactor,
		IdleDelay:       time.Duration(cfg.IdleDelayMS) * time.Millisecond,
		BufferLength:    cfg.BufferLength,
		IterationLimit:  cfg.BufferIterationLimit,
		NoiseThreshold:  cfg.NoiseThreshold,
		InnerLimit:      cfg.InnerLimit,
		OuterLimit:      cfg.OuterLimit,
		Alpha:           cfg.SmoothingAlpha,
		AutoSelect:      cfg.AutoSelect,
		DrawMotion:      cfg.DrawMotion,
		ConfirmDuration: time.Duration(cfg.ConfirmDurationMS) * time.Millisecond,
		Axis:            axis,
		QuaternionIndex: cfg.QuaternionIndex,
		ScreenCenter:    layout.Viewport.Center(),
	}
}

// loadLayout reads the layout file, falling back to the built-in layout when
// the file does not exist. The configured axis fills in a layout without one.
func loadLayout(cfg *config.Config) (ui.Layout, error) {
	layout, err := ui.LoadLayout(cfg.LayoutFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("layout: %s not found, using default layout", cfg.LayoutFile)
		layout = ui.DefaultLayout()
		layout.Axis = ""
	case err != nil:
		return ui.Layout{}, err
	}
	if layout.Axis == "" {
		layout.Axis = gaze.ParseAxis(cfg.TrackedAxis).String()
	}
	return layout, nil
}

// RunGaze runs the controller with the configured source, the web UI and,
// when enabled, the OLED debug display.
func RunGaze() error {
	log.Println("starting gaze controller")
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout, err := loadLayout(cfg)
	if err != nil {
		return err
	}
	settings := settingsFromConfig(cfg, layout)
	log.Printf("gaze: %d items, axis %s, centre (%.0f, %.0f)",
		len(layout.Items), settings.Axis, settings.ScreenCenter.X, settings.ScreenCenter.Y)

	debugLog := ui.NewDebugLog(cfg.DebugLogSize, true)
	board := ui.NewBoard(layout.Resolve())
	hub := NewHub(func() any { return board.State() })
	board.AddSink(hub)

	// MQTT is optional unless it is the sample source
	var client mqtt.Client
	if c, err := connectMQTT(cfg, cfg.MQTTClientIDGaze); err != nil {
		if cfg.Source == "mqtt" {
			return err
		}
		log.Printf("gaze: WARNING: %v, events will not be published", err)
	} else {
		client = c
		defer client.Disconnect(250)
		board.AddSink(&mqttEventSink{client: client, topic: cfg.TopicEvents})
	}

	canvas := render.NewCanvas(layout.Viewport.Width, layout.Viewport.Height)
	renderers := render.Multi{canvas}
	if cfg.DisplayEnabled {
		oled, closeBus, err := render.OpenOLED(cfg.DisplayI2CBus)
		if err != nil {
			log.Printf("display: %v, continuing without it", err)
		} else {
			defer closeBus()
			renderers = append(renderers, oled)
		}
	}

	controller := gaze.New(settings, board,
		gaze.WithRenderer(renderers),
		gaze.WithDebugSink(debugLog),
	)

	src, perms, closeSource, err := openSource(cfg, client)
	defer closeSource()
	var sensor gaze.SampleSensor
	if err != nil {
		log.Printf("gaze: %v", err)
	} else {
		sensor = orientation.NewSensor(src, orientation.Options{Frequency: cfg.SensorFrequency}, perms)
	}

	// a missing sensor or denied permission leaves the web UI up
	if err := controller.Start(ctx, sensor); err != nil {
		log.Printf("gaze: controller not started: %v", err)
	}
	defer controller.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		mux := newWebMux(webDeps{
			controller: controller,
			board:      board,
			debug:      debugLog,
			canvas:     canvas,
			hub:        hub,
			staticDir:  "web",
		})
		if err := serveWeb(gctx, cfg.WebServerPort, mux); err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Println("gaze controller stopped")
	return err
}
