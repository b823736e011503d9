// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gaze

// PositionMapper converts the smoothed orientation into a pixel offset from the
// reference and eases the cursor toward it.
type PositionMapper struct {
	factor float64
	alpha  float64
	limit  float64

	reference float64
	hasRef    bool
	target    float64
	last      float64
}

// NewPositionMapper returns a mapper with no reference yet.
func NewPositionMapper(factor, alpha, outerLimit float64) *PositionMapper {
	return &PositionMapper{factor: factor, alpha: alpha, limit: outerLimit}
}

// ComputeTarget is the instantaneous offset of average from reference.
func (m *PositionMapper) ComputeTarget(average, reference float64) float64 {
	return (average - reference) * m.factor
}

// Step moves lastCurrent a fraction alpha toward target and clamps the result.
func (m *PositionMapper) Step(target, lastCurrent float64) float64 {
	current := lastCurrent + (target-lastCurrent)*m.alpha
	return clamp(current, -m.limit, m.limit)
}

// Bootstrap sets the reference from the first sample so the first frame
// starts at zero.
func (m *PositionMapper) Bootstrap(sample float64) {
	m.reference = sample
	m.hasRef = true
	m.target = 0
	m.last = m.ComputeTarget(sample, sample)
}

// Update maps average and stores the clamped result for the next tick.
func (m *PositionMapper) Update(average float64) float64 {
	if !m.hasRef {
		m.Bootstrap(average)
	}
	m.target = m.ComputeTarget(average, m.reference)
	m.last = m.Step(m.target, m.last)
	return m.last
}

// Bootstrapped reports whether a reference exists.
func (m *PositionMapper) Bootstrapped() bool { return m.hasRef }

// Reference is the current neutral orientation.
func (m *PositionMapper) Reference() float64 { return m.reference }

// SetReference re-centres the mapper; the cursor eases to the new neutral.
func (m *PositionMapper) SetReference(ref float64) {
	m.reference = ref
	m.hasRef = true
}

// Target is the last unsmoothed offset.
func (m *PositionMapper) Target() float64 { return m.target }

// Last is the last clamped cursor offset.
func (m *PositionMapper) Last() float64 { return m.last }

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
