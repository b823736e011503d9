// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gaze

import (
	"gonum.org/v1/gonum/stat"
)

// SmoothingBuffer keeps the most recent samples and a slowly refreshed mean.
//
// The mean is only recomputed every IterationLimit+1 pushes once the buffer is
// full, so the cursor target moves in steps instead of following jitter.
// The previous average is advanced by Commit, which the selection engine calls
// when it consumes a movement.
type SmoothingBuffer struct {
	samples    []float64
	capacity   int
	limit      int
	iterations int

	average  float64
	previous float64
	started  bool

	recomputes int
}

// NewSmoothingBuffer returns an empty buffer holding up to capacity samples.
func NewSmoothingBuffer(capacity, iterationLimit int) *SmoothingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &SmoothingBuffer{
		samples:  make([]float64, 0, capacity+1),
		capacity: capacity,
		limit:    iterationLimit,
	}
}

// Push appends a sample, evicting the oldest once over capacity.
func (b *SmoothingBuffer) Push(sample float64) {
	if !b.started {
		b.average = sample
		b.previous = sample
		b.started = true
	}

	b.samples = append(b.samples, sample)
	if len(b.samples) <= b.capacity {
		return
	}

	copy(b.samples, b.samples[1:])
	b.samples = b.samples[:b.capacity]

	b.iterations++
	if b.iterations > b.limit {
		b.average = stat.Mean(b.samples, nil)
		b.iterations = 0
		b.recomputes++
	}
}

// Average is the current smoothed value.
func (b *SmoothingBuffer) Average() float64 { return b.average }

// Previous is the average at the time of the last Commit.
func (b *SmoothingBuffer) Previous() float64 { return b.previous }

// Commit marks the current average as consumed.
func (b *SmoothingBuffer) Commit() { b.previous = b.average }

// Len is the number of buffered samples.
func (b *SmoothingBuffer) Len() int { return len(b.samples) }

// Recomputes counts how often the average was refreshed.
func (b *SmoothingBuffer) Recomputes() int { return b.recomputes }

// Samples returns a copy of the buffer, oldest first.
func (b *SmoothingBuffer) Samples() []float64 {
	out := make([]float64, len(b.samples))
	copy(out, b.samples)
	return out
}
