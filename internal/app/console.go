// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/relabs-tech/gaze_selector/internal/config"
	"github.com/relabs-tech/gaze_selector/internal/gaze"
	"github.com/relabs-tech/gaze_selector/internal/orientation"
	"github.com/relabs-tech/gaze_selector/internal/render"
	"github.com/relabs-tech/gaze_selector/internal/ui"
)

// RunConsole runs the controller against the configured source and draws the
// cursor in the terminal. q or Esc quits, r re-centres on the current average.
func RunConsole() error {
	cfg := config.Get()

	layout, err := loadLayout(cfg)
	if err != nil {
		return err
	}
	settings := settingsFromConfig(cfg, layout)
	// the terminal is the only surface
	settings.DrawMotion = true

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("console: new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("console: init screen: %w", err)
	}
	defer screen.Fini()

	var (
		mu        sync.Mutex
		lastEvent string
	)
	board := ui.NewBoard(layout.Resolve(), ui.SinkFunc(func(ev ui.Event) {
		mu.Lock()
		defer mu.Unlock()
		lastEvent = string(ev.Type)
		if ev.ItemID != "" {
			lastEvent += " " + ev.ItemID
		}
	}))

	term := render.NewTerminal(screen)
	debugLog := ui.NewDebugLog(1, false)
	controller := gaze.New(settings, board,
		gaze.WithRenderer(term),
		gaze.WithDebugSink(debugLog),
	)
	term.SetInfo(func() string {
		mu.Lock()
		defer mu.Unlock()
		focused := board.Focused()
		if focused == "" {
			focused = "-"
		}
		return fmt.Sprintf("focused %-10s last event %-20s (q quits)", focused, lastEvent)
	})

	src, perms, closeSource, err := openSource(cfg, nil)
	defer closeSource()
	if err != nil {
		return err
	}
	sensor := orientation.NewSensor(src, orientation.Options{Frequency: cfg.SensorFrequency}, perms)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Start(ctx, sensor); err != nil {
		return fmt.Errorf("console: %w (%s)", err, lastDebug(debugLog))
	}
	defer controller.Stop()

	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
				return nil
			case ev.Rune() == 'r':
				controller.Recenter()
			}
		case nil:
			return nil
		}
	}
}

func lastDebug(d *ui.DebugLog) string {
	if e := d.Entries(); len(e) > 0 {
		return e[0].Text
	}
	return ""
}
