// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gaze

import "time"

// Task is a pending scheduled call.
type Task interface {
	Stop() bool
}

// Scheduler runs f once after d, on any goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// SystemScheduler is backed by time.AfterFunc.
var SystemScheduler Scheduler = timerScheduler{}

// debouncer keeps at most one live task for a purpose. Scheduling replaces the
// previous task. A callback that already fired but lost the race against a
// newer Schedule or Cancel sees a stale generation and does nothing.
//
// Schedule and Cancel must be called under the same lock that run acquires.
type debouncer struct {
	sched Scheduler
	run   func(func()) // executes f under the owner's lock
	task  Task
	gen   uint64
}

func newDebouncer(sched Scheduler, run func(func())) *debouncer {
	return &debouncer{sched: sched, run: run}
}

func (d *debouncer) Schedule(after time.Duration, f func()) {
	d.Cancel()
	gen := d.gen
	d.task = d.sched.AfterFunc(after, func() {
		d.run(func() {
			if d.gen != gen {
				return
			}
			d.task = nil
			f()
		})
	})
}

func (d *debouncer) Cancel() {
	d.gen++
	if d.task != nil {
		d.task.Stop()
		d.task = nil
	}
}

// Pending reports whether a task is scheduled and not yet fired.
func (d *debouncer) Pending() bool {
	return d.task != nil
}
