// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gaze

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/relabs-tech/gaze_selector/internal/orientation"
)

var (
	ErrSensorUnavailable = errors.New("gaze: no motion sensor available")
	ErrPermissionDenied  = errors.New("gaze: sensor permissions not granted")
	ErrAlreadyStarted    = errors.New("gaze: controller already started")
	ErrStopped           = errors.New("gaze: controller stopped")
)

// Frame is what the debug renderer draws on every tick.
type Frame struct {
	Position   float64
	InnerLimit float64
	OuterLimit float64
	Center     Point
	Axis       Axis
}

// Renderer draws a debug frame. Failures stay inside the renderer.
type Renderer interface {
	Draw(f Frame)
}

// DebugSink receives diagnostic values, newest first on the UI side.
type DebugSink interface {
	Debug(v any)
}

// SampleSensor is the orientation sensor as the controller sees it.
type SampleSensor interface {
	orientation.PermissionQuerier
	Start(ctx context.Context, handler func(orientation.Reading)) error
	Stop()
}

// State is a read-only snapshot of the controller.
type State struct {
	Reference       float64 `json:"reference"`
	Average         float64 `json:"average"`
	PreviousAverage float64 `json:"previous_average"`
	Target          float64 `json:"target"`
	Position        float64 `json:"position"`
	Movement        float64 `json:"movement"`
	Focused         string  `json:"focused,omitempty"`
	BufferLen       int     `json:"buffer_len"`
	Samples         uint64  `json:"samples"`
	IdlePending     bool    `json:"idle_pending"`
	Running         bool    `json:"running"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithRenderer sets the debug renderer. It is only used when DrawMotion is on.
func WithRenderer(r Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

// WithDebugSink sets where samples and diagnostics are logged.
func WithDebugSink(d DebugSink) Option {
	return func(c *Controller) { c.debug = d }
}

// WithScheduler replaces the timer implementation.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// Controller owns all gaze state for one sensor stream.
type Controller struct {
	mu sync.Mutex

	settings Settings
	ui       UI
	renderer Renderer
	debug    DebugSink
	sched    Scheduler

	buffer *SmoothingBuffer
	mapper *PositionMapper
	engine *SelectionEngine

	sensor  SampleSensor
	unwatch func() bool // stops the context watcher of the running sensor
	running bool
	stopped bool
	samples uint64
}

// New builds a controller. Call Start to attach a sensor, or feed samples
// directly with HandleSample.
func New(s Settings, ui UI, opts ...Option) *Controller {
	c := &Controller{
		settings: s,
		ui:       ui,
		sched:    SystemScheduler,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.buffer = NewSmoothingBuffer(s.BufferLength, s.IterationLimit)
	c.mapper = NewPositionMapper(s.Factor, s.Alpha, s.OuterLimit)
	c.engine = newSelectionEngine(s, ui, c.sched, c.locked, c.recenter)
	return c
}

func (c *Controller) locked(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	f()
}

// recenter runs from the idle task with c.mu held.
func (c *Controller) recenter() {
	ref := c.buffer.Average()
	c.mapper.SetReference(ref)
	c.log(fmt.Sprintf("idle: reference reset to %.5f", ref))
}

// Recenter makes the current average the neutral position, as the idle task
// does. It is a no-op before the first sample.
func (c *Controller) Recenter() {
	c.locked(func() {
		if c.mapper.Bootstrapped() {
			c.recenter()
		}
	})
}

// Start negotiates sensor permissions once and subscribes to readings.
// There is no retry: a denied permission disables the controller. A second
// Start before Stop fails with ErrAlreadyStarted and leaves the running
// sensor untouched.
func (c *Controller) Start(ctx context.Context, sensor SampleSensor) error {
	if c.attached() {
		return ErrAlreadyStarted
	}
	if sensor == nil {
		c.log("no motion sensor detected")
		return ErrSensorUnavailable
	}

	granted, err := orientation.QueryAll(ctx, sensor, orientation.RequiredPermissions...)
	if err != nil {
		c.log(fmt.Sprintf("permission query failed: %v", err))
		return fmt.Errorf("query sensor permissions: %w", err)
	}
	if !granted {
		c.log("No permissions to use RelativeOrientationSensor.")
		return ErrPermissionDenied
	}

	c.mu.Lock()
	if c.sensor != nil {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.sensor = sensor
	c.stopped = false
	c.mu.Unlock()

	if err := sensor.Start(ctx, c.HandleReading); err != nil {
		c.mu.Lock()
		if c.sensor == sensor {
			c.sensor = nil
		}
		c.mu.Unlock()
		return fmt.Errorf("start sensor: %w", err)
	}

	c.mu.Lock()
	if c.sensor != sensor {
		// Stop ran while the sensor was starting
		c.mu.Unlock()
		sensor.Stop()
		return ErrStopped
	}
	c.running = true
	c.unwatch = context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.sensor == sensor {
			c.running = false
			c.log("sensor: delivery ended")
		}
	})
	c.mu.Unlock()
	return nil
}

func (c *Controller) attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sensor != nil
}

// Stop unsubscribes from the sensor and cancels pending idle and dwell tasks.
// No re-centering happens after Stop returns.
func (c *Controller) Stop() {
	c.mu.Lock()
	sensor, unwatch := c.sensor, c.unwatch
	c.sensor, c.unwatch = nil, nil
	c.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	// outside the lock: Stop waits for an in-flight reading
	if sensor != nil {
		sensor.Stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Cancel()
	c.running = false
	c.stopped = true
}

// HandleReading extracts the controlled axis and processes it.
func (c *Controller) HandleReading(r orientation.Reading) {
	c.HandleSample(r.Quaternion.Axis(c.settings.QuaternionIndex))
}

// HandleSample runs one full pass for a raw orientation sample and returns
// the engine's decision.
func (c *Controller) HandleSample(sample float64) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return DecisionNone
	}
	c.samples++

	c.log(sample)

	c.buffer.Push(sample)
	if !c.mapper.Bootstrapped() {
		c.mapper.Bootstrap(sample)
	}
	position := c.mapper.Update(c.buffer.Average())

	decision := c.engine.Evaluate(position, c.buffer)

	if c.settings.DrawMotion {
		c.draw(position)
	}
	return decision
}

func (c *Controller) draw(position float64) {
	if c.renderer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("gaze: renderer panic: %v", r)
		}
	}()
	c.renderer.Draw(Frame{
		Position:   position,
		InnerLimit: c.settings.InnerLimit,
		OuterLimit: c.settings.OuterLimit,
		Center:     c.settings.ScreenCenter,
		Axis:       c.settings.Axis,
	})
}

func (c *Controller) log(v any) {
	if c.debug == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("gaze: debug sink panic: %v", r)
		}
	}()
	c.debug.Debug(v)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Reference:       c.mapper.Reference(),
		Average:         c.buffer.Average(),
		PreviousAverage: c.buffer.Previous(),
		Target:          c.mapper.Target(),
		Position:        c.mapper.Last(),
		Movement:        MovementMagnitude(c.buffer.Previous(), c.buffer.Average(), c.settings.Factor),
		BufferLen:       c.buffer.Len(),
		Samples:         c.samples,
		IdlePending:     c.engine.idle.Pending(),
		Running:         c.running,
	}
	if it, ok := c.engine.Focused(); ok {
		st.Focused = it.ID
	}
	return st
}

// Settings returns the controller configuration.
func (c *Controller) Settings() Settings {
	return c.settings
}
