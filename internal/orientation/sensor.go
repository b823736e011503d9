// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var (
	ErrAlreadyStarted = errors.New("orientation: sensor already started")
	ErrNoSource       = errors.New("orientation: no source")
)

// Reading is one sensor sample.
type Reading struct {
	Quaternion Quaternion
	Timestamp  time.Time
}

// Options mirror the relative orientation sensor construction options.
type Options struct {
	Frequency      int    // Hz
	ReferenceFrame string // "device" or "screen"
}

// DefaultOptions samples at 30 Hz in the device frame.
func DefaultOptions() Options {
	return Options{Frequency: 30, ReferenceFrame: "device"}
}

// Sensor polls a Source at a fixed frequency and delivers readings to a
// single handler. Readings are delivered one at a time from one goroutine.
type Sensor struct {
	src   Source
	opts  Options
	perms PermissionQuerier

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSensor wraps src. perms answers permission queries before Start.
func NewSensor(src Source, opts Options, perms PermissionQuerier) *Sensor {
	if opts.Frequency <= 0 {
		opts.Frequency = DefaultOptions().Frequency
	}
	if opts.ReferenceFrame == "" {
		opts.ReferenceFrame = DefaultOptions().ReferenceFrame
	}
	if perms == nil {
		perms = StaticPermissions{}
	}
	return &Sensor{src: src, opts: opts, perms: perms}
}

// Options returns the effective options.
func (s *Sensor) Options() Options {
	return s.opts
}

// Query forwards to the permission querier.
func (s *Sensor) Query(ctx context.Context, p Permission) (PermissionState, error) {
	return s.perms.Query(ctx, p)
}

// Start begins delivering readings to handler until Stop or ctx is done.
func (s *Sensor) Start(ctx context.Context, handler func(Reading)) error {
	if s.src == nil {
		return ErrNoSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, handler, s.done)
	return nil
}

// Stop unsubscribes the handler and waits for an in-flight reading to finish.
func (s *Sensor) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sensor) run(ctx context.Context, handler func(Reading), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(s.opts.Frequency))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			q, err := s.src.Next()
			if err != nil {
				if !errors.Is(err, ErrNoData) {
					log.Printf("sensor: read error: %v", err)
				}
				continue
			}
			// a reading already in flight is still delivered after cancel
			if ctx.Err() != nil {
				return
			}
			handler(Reading{Quaternion: q, Timestamp: t})
		}
	}
}
