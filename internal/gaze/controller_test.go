package gaze

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaze_selector/internal/orientation"
)

type recordingSink struct {
	values []any
}

func (s *recordingSink) Debug(v any) { s.values = append(s.values, v) }

type recordingRenderer struct {
	frames []Frame
}

func (r *recordingRenderer) Draw(f Frame) { r.frames = append(r.frames, f) }

type panickingRenderer struct{}

func (panickingRenderer) Draw(Frame) { panic("no drawing surface") }

type fakeSensor struct {
	perms   orientation.StaticPermissions
	handler func(orientation.Reading)
	started bool
	stopped bool
}

func (s *fakeSensor) Query(ctx context.Context, p orientation.Permission) (orientation.PermissionState, error) {
	return s.perms.Query(ctx, p)
}

func (s *fakeSensor) Start(_ context.Context, h func(orientation.Reading)) error {
	s.handler = h
	s.started = true
	return nil
}

func (s *fakeSensor) Stop() { s.stopped = true }

func newTestController(t *testing.T, s Settings, ui UI, opts ...Option) (*Controller, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	opts = append([]Option{WithScheduler(sched)}, opts...)
	return New(s, ui, opts...), sched
}

// driveToFocus feeds ten neutral samples, then holds the head at 0.05 until
// the engine focuses something.
func driveToFocus(t *testing.T, c *Controller) int {
	t.Helper()
	for i := 0; i < 10; i++ {
		c.HandleSample(0)
	}
	for i := 1; i <= 30; i++ {
		if c.HandleSample(0.05) == DecisionFocus {
			return i
		}
	}
	t.Fatal("controller never focused")
	return 0
}

func TestController_FirstSampleBootstraps(t *testing.T) {
	c, _ := newTestController(t, DefaultSettings(), &fakeUI{})

	c.HandleSample(0.3)

	st := c.Snapshot()
	assert.Equal(t, 0.0, st.Position)
	assert.Equal(t, 0.3, st.Reference)
	assert.Equal(t, 0.3, st.Average)
	assert.Equal(t, 1, st.BufferLen)
	assert.Equal(t, uint64(1), st.Samples)
}

func TestController_ClampInvariant(t *testing.T) {
	c, _ := newTestController(t, DefaultSettings(), &fakeUI{})
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 3000; i++ {
		c.HandleSample(rng.Float64()*2 - 1)
		st := c.Snapshot()
		require.LessOrEqual(t, st.Position, 400.0)
		require.GreaterOrEqual(t, st.Position, -400.0)
		require.LessOrEqual(t, st.BufferLen, 10)
	}
}

func TestController_FocusAndIdleRecenter(t *testing.T) {
	s := DefaultSettings()
	ui := &fakeUI{items: itemsAlongAxis(s, map[string]float64{"up": -100, "down": 100}, "up", "down")}
	c, sched := newTestController(t, s, ui)

	// average steps to 0.03 on the 6th held sample, the cursor then needs
	// three more ticks to leave the dead zone
	assert.Equal(t, 9, driveToFocus(t, c))

	st := c.Snapshot()
	assert.Equal(t, "up", st.Focused)
	assert.Less(t, st.Position, -50.0)
	assert.True(t, st.IdlePending)
	assert.Equal(t, 0.0, st.Reference)
	assert.InDelta(t, 0.03, st.Average, 1e-12)
	assert.Equal(t, st.Average, st.PreviousAverage)

	sched.Advance(3999 * time.Millisecond)
	assert.Equal(t, 0.0, c.Snapshot().Reference)

	sched.Advance(time.Millisecond)
	st = c.Snapshot()
	assert.Equal(t, st.Average, st.Reference)
	assert.False(t, st.IdlePending)

	// the cursor drifts back to the new neutral and selection clears
	deselectsBefore := ui.deselects
	for i := 0; i < 30; i++ {
		c.HandleSample(0.03)
	}
	assert.Greater(t, ui.deselects, deselectsBefore)
	assert.Empty(t, c.Snapshot().Focused)
}

func TestController_StopCancelsIdle(t *testing.T) {
	s := DefaultSettings()
	ui := &fakeUI{items: itemsAlongAxis(s, map[string]float64{"up": -100}, "up")}
	c, sched := newTestController(t, s, ui)

	driveToFocus(t, c)
	c.Stop()

	sched.Advance(10 * time.Second)
	st := c.Snapshot()
	assert.Equal(t, 0.0, st.Reference)
	assert.False(t, st.Running)

	assert.Equal(t, DecisionNone, c.HandleSample(0.2))
	assert.Equal(t, st.Samples, c.Snapshot().Samples)
}

func TestController_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("no sensor", func(t *testing.T) {
		sink := &recordingSink{}
		c, _ := newTestController(t, DefaultSettings(), &fakeUI{}, WithDebugSink(sink))

		assert.ErrorIs(t, c.Start(ctx, nil), ErrSensorUnavailable)
		assert.Equal(t, []any{"no motion sensor detected"}, sink.values)
	})

	t.Run("permission denied", func(t *testing.T) {
		sink := &recordingSink{}
		c, _ := newTestController(t, DefaultSettings(), &fakeUI{}, WithDebugSink(sink))
		sensor := &fakeSensor{perms: orientation.GrantAll(orientation.PermAccelerometer)}

		assert.ErrorIs(t, c.Start(ctx, sensor), ErrPermissionDenied)
		assert.False(t, sensor.started)
		assert.Equal(t, []any{"No permissions to use RelativeOrientationSensor."}, sink.values)
	})

	t.Run("granted", func(t *testing.T) {
		c, _ := newTestController(t, DefaultSettings(), &fakeUI{})
		sensor := &fakeSensor{perms: orientation.GrantAll(orientation.RequiredPermissions...)}

		require.NoError(t, c.Start(ctx, sensor))
		require.True(t, sensor.started)
		assert.True(t, c.Snapshot().Running)

		sensor.handler(orientation.Reading{Quaternion: orientation.Quaternion{0.9, 0.12, 0.3, 0.1}})
		st := c.Snapshot()
		assert.Equal(t, uint64(1), st.Samples)
		assert.Equal(t, 0.12, st.Reference, "index 1 is the controlled axis")

		c.Stop()
		assert.True(t, sensor.stopped)
		assert.False(t, c.Snapshot().Running)
	})

	t.Run("second start keeps the running sensor", func(t *testing.T) {
		sink := &recordingSink{}
		c, _ := newTestController(t, DefaultSettings(), &fakeUI{}, WithDebugSink(sink))
		first := &fakeSensor{perms: orientation.GrantAll(orientation.RequiredPermissions...)}
		second := &fakeSensor{perms: orientation.GrantAll(orientation.RequiredPermissions...)}

		require.NoError(t, c.Start(ctx, first))
		assert.ErrorIs(t, c.Start(ctx, second), ErrAlreadyStarted)
		assert.ErrorIs(t, c.Start(ctx, first), ErrAlreadyStarted)
		assert.False(t, second.started)
		assert.Empty(t, sink.values)
		assert.True(t, c.Snapshot().Running)

		c.Stop()
		assert.True(t, first.stopped)

		// a stopped controller can be started again
		require.NoError(t, c.Start(ctx, second))
		c.Stop()
		assert.True(t, second.stopped)
	})

	t.Run("cancelled context clears running", func(t *testing.T) {
		c, _ := newTestController(t, DefaultSettings(), &fakeUI{})
		sensor := &fakeSensor{perms: orientation.GrantAll(orientation.RequiredPermissions...)}

		runCtx, cancel := context.WithCancel(ctx)
		require.NoError(t, c.Start(runCtx, sensor))
		assert.True(t, c.Snapshot().Running)

		cancel()
		assert.Eventually(t, func() bool { return !c.Snapshot().Running }, time.Second, time.Millisecond)

		c.Stop()
		assert.True(t, sensor.stopped)
	})
}

type countingSource struct{ polls atomic.Int64 }

func (s *countingSource) Next() (orientation.Quaternion, error) {
	s.polls.Add(1)
	return orientation.Quaternion{0, 0, 0, 1}, nil
}

func TestController_StopAfterRepeatedStartHaltsPolling(t *testing.T) {
	src := &countingSource{}
	sensor := orientation.NewSensor(src, orientation.Options{Frequency: 200},
		orientation.GrantAll(orientation.RequiredPermissions...))
	c := New(DefaultSettings(), &fakeUI{})

	require.NoError(t, c.Start(context.Background(), sensor))
	assert.Eventually(t, func() bool { return src.polls.Load() > 0 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.Start(context.Background(), sensor), ErrAlreadyStarted)

	c.Stop()
	after := src.polls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, src.polls.Load(), "source polled after Stop")
}

func TestController_DebugRendering(t *testing.T) {
	t.Run("draws every tick", func(t *testing.T) {
		r := &recordingRenderer{}
		sink := &recordingSink{}
		c, _ := newTestController(t, DefaultSettings(), &fakeUI{}, WithRenderer(r), WithDebugSink(sink))

		c.HandleSample(0.1)
		c.HandleSample(0.1)

		require.Len(t, r.frames, 2)
		assert.Equal(t, Frame{
			Position:   0,
			InnerLimit: 50,
			OuterLimit: 400,
			Center:     Point{X: 960, Y: 540},
			Axis:       Vertical,
		}, r.frames[0])
		assert.Equal(t, []any{0.1, 0.1}, sink.values)
	})

	t.Run("disabled", func(t *testing.T) {
		s := DefaultSettings()
		s.DrawMotion = false
		r := &recordingRenderer{}
		c, _ := newTestController(t, s, &fakeUI{}, WithRenderer(r))

		c.HandleSample(0.1)
		assert.Empty(t, r.frames)
	})

	t.Run("renderer failure does not stop processing", func(t *testing.T) {
		s := DefaultSettings()
		ui := &fakeUI{items: itemsAlongAxis(s, map[string]float64{"up": -100}, "up")}
		c, _ := newTestController(t, s, ui, WithRenderer(panickingRenderer{}))

		assert.NotPanics(t, func() { driveToFocus(t, c) })
		assert.Equal(t, "up", c.Snapshot().Focused)
	})
}

func TestController_Recenter(t *testing.T) {
	c, _ := newTestController(t, DefaultSettings(), &fakeUI{})

	c.Recenter()
	assert.Equal(t, 0.0, c.Snapshot().Reference, "nothing to recenter on yet")

	for i := 0; i < 10; i++ {
		c.HandleSample(0.2)
	}
	c.HandleSample(0.2)
	st := c.Snapshot()
	assert.Equal(t, 0.2, st.Reference)

	for i := 0; i < 6; i++ {
		c.HandleSample(0.1)
	}
	c.Recenter()
	st = c.Snapshot()
	assert.InDelta(t, 0.15, st.Reference, 1e-12)
	assert.Equal(t, st.Average, st.Reference)
}
