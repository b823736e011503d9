// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock orientation source that slowly nods the head
// up and down, pausing at each end long enough to dwell on an item.
func NewMockSource() Source {
	return newMockSource(time.Now)
}

func newMockSource(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (Quaternion, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	// A clipped sine gives plateaus at ±6°, which map past the inner limit.
	pitch := max(-6, min(9*math.Sin(elapsed*0.5), 6))

	return FromPose(Pose{
		Roll:  0.3 * math.Sin(elapsed*3.1),
		Pitch: pitch,
		Yaw:   2 * math.Sin(elapsed*0.2),
	}), nil
}
