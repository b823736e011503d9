package gaze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoothingBuffer_Bootstrap(t *testing.T) {
	b := NewSmoothingBuffer(10, 5)
	b.Push(0.25)

	assert.Equal(t, 0.25, b.Average())
	assert.Equal(t, 0.25, b.Previous())
	assert.Equal(t, 1, b.Len())

	// no recompute before the buffer is full
	for i := 0; i < 9; i++ {
		b.Push(1)
	}
	assert.Equal(t, 10, b.Len())
	assert.Equal(t, 0.25, b.Average())
	assert.Equal(t, 0, b.Recomputes())
}

func TestSmoothingBuffer_Eviction(t *testing.T) {
	b := NewSmoothingBuffer(10, 5)
	for i := 1; i <= 11; i++ {
		b.Push(float64(i))
		assert.LessOrEqual(t, b.Len(), 10)
	}

	samples := b.Samples()
	assert.Len(t, samples, 10)
	assert.NotContains(t, samples, 1.0)
	assert.Equal(t, 2.0, samples[0])
	assert.Equal(t, 11.0, samples[9])
}

func TestSmoothingBuffer_RecomputeCadence(t *testing.T) {
	b := NewSmoothingBuffer(10, 5)
	for i := 1; i <= 10; i++ {
		b.Push(float64(i))
	}

	var recomputedAt []int
	for n := 1; n <= 16; n++ {
		before := b.Recomputes()
		b.Push(float64(10 + n))
		if b.Recomputes() != before {
			recomputedAt = append(recomputedAt, n)
		}
	}

	assert.Equal(t, []int{6, 12}, recomputedAt)
	assert.Equal(t, 2, b.Recomputes())

	// second recompute saw samples 13..22
	assert.InDelta(t, 17.5, b.Average(), 1e-12)
}

func TestSmoothingBuffer_Commit(t *testing.T) {
	b := NewSmoothingBuffer(2, 0)
	b.Push(0)
	b.Push(0)
	b.Push(4) // evicts, counter 1 > 0: mean of [0, 4]

	assert.Equal(t, 2.0, b.Average())
	assert.Equal(t, 0.0, b.Previous())

	b.Commit()
	assert.Equal(t, 2.0, b.Previous())
}

func TestSmoothingBuffer_SamplesIsCopy(t *testing.T) {
	b := NewSmoothingBuffer(3, 5)
	b.Push(1)
	s := b.Samples()
	s[0] = 99
	assert.Equal(t, []float64{1}, b.Samples())
}
