package motion

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type placement struct {
	anchor Anchor
	p      Point
	at     time.Time
}

// recordingActor is a minimal Actor that remembers every Place call.
type recordingActor struct {
	mu     sync.Mutex
	bounds Rect
	places []placement
}

func newRecordingActor(r Rect) *recordingActor {
	return &recordingActor{bounds: r}
}

func (a *recordingActor) Bounds() Rect {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bounds
}

func (a *recordingActor) Place(anchor Anchor, p Point) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bounds = a.bounds.WithAnchorAt(anchor, p)
	a.places = append(a.places, placement{anchor: anchor, p: p, at: time.Now()})
}

func (a *recordingActor) placements() []placement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]placement(nil), a.places...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastEngine(opts ...Option) *Engine {
	base := []Option{WithTick(time.Millisecond), WithLogger(quietLogger())}
	return New(append(base, opts...)...)
}

func TestMoveTo_SnapsToExactTarget(t *testing.T) {
	actor := newRecordingActor(Rect{Width: 10, Height: 10})
	e := fastEngine()

	report, err := e.MoveTo(context.Background(), Request{TargetX: 103.7, TargetY: -41.2, Speed: 5, Side: "center"}, actor)
	require.NoError(t, err)

	places := actor.placements()
	require.NotEmpty(t, places)
	last := places[len(places)-1]
	assert.Equal(t, Center, last.anchor)
	assert.Equal(t, Point{103.7, -41.2}, last.p)
	assert.Equal(t, Point{103.7, -41.2}, report.Final)
	assert.Equal(t, len(places)-1, report.Steps)
}

func TestMoveTo_DistanceNonIncreasing(t *testing.T) {
	actor := newRecordingActor(Rect{X: 500, Y: 500, Width: 40, Height: 20})
	e := fastEngine()
	target := Point{17, 933}

	_, err := e.MoveTo(context.Background(), Request{TargetX: target.X, TargetY: target.Y, Speed: 7, Side: "topright"}, actor)
	require.NoError(t, err)

	places := actor.placements()
	prev := math.Inf(1)
	for i, pl := range places {
		d := DistanceSquared(pl.p, target)
		assert.LessOrEqual(t, d, prev, "step %d moved away from target", i)
		prev = d
		assert.Equal(t, TopRight, pl.anchor)
	}
	assert.Equal(t, target, places[len(places)-1].p)
}

func TestMoveTo_StepLengthEqualsSpeed(t *testing.T) {
	actor := newRecordingActor(Rect{Width: 0, Height: 0})
	e := fastEngine()

	_, err := e.MoveTo(context.Background(), Request{TargetX: 100, TargetY: 0, Speed: 10, Side: "topleft"}, actor)
	require.NoError(t, err)

	places := actor.placements()
	// stop radius is 10·√2+1 ≈ 15.14, so steps land on 10..90 then snap to 100
	require.Len(t, places, 10)
	for i := 0; i < 9; i++ {
		assert.InDelta(t, float64(10*(i+1)), places[i].p.X, 1e-9)
		assert.InDelta(t, 0, places[i].p.Y, 1e-9)
	}
	assert.Equal(t, Point{100, 0}, places[9].p)
}

func TestMoveTo_TargetAtCurrentPositionSnapsOnce(t *testing.T) {
	actor := newRecordingActor(Rect{X: 10, Y: 10, Width: 4, Height: 4})
	e := fastEngine()

	report, err := e.MoveTo(context.Background(), Request{TargetX: 12, TargetY: 12, Side: "center"}, actor)
	require.NoError(t, err)

	places := actor.placements()
	require.Len(t, places, 1)
	assert.Equal(t, Point{12, 12}, places[0].p)
	assert.Equal(t, 0, report.Steps)
}

func TestMoveTo_ZeroAndNegativeSpeedUseDefault(t *testing.T) {
	for _, speed := range []float64{0, -3, math.NaN()} {
		actor := newRecordingActor(Rect{})
		e := fastEngine()

		_, err := e.MoveTo(context.Background(), Request{TargetX: 50, TargetY: 0, Speed: speed, Side: "topleft"}, actor)
		require.NoError(t, err)

		places := actor.placements()
		require.Greater(t, len(places), 1)
		assert.InDelta(t, DefaultSpeed, places[0].p.X, 1e-9, "speed %v", speed)
	}
}

func TestMoveTo_InvalidSideTouchesNothing(t *testing.T) {
	actor := newRecordingActor(Rect{Width: 10, Height: 10})
	e := fastEngine()

	_, err := e.MoveTo(context.Background(), Request{TargetX: 50, TargetY: 50, Side: "sideways"}, actor)
	require.Error(t, err)
	assert.True(t, IsSideError(err))
	assert.Empty(t, actor.placements())
}

func TestMoveTo_DefaultSideIsClosest(t *testing.T) {
	actor := newRecordingActor(Rect{Width: 10, Height: 10})
	e := fastEngine()

	report, err := e.MoveTo(context.Background(), Request{TargetX: 5, TargetY: 1}, actor)
	require.NoError(t, err)
	assert.Equal(t, Top, report.Anchor)
}

func TestMoveTo_CallbackSeesStepsAndFinalTarget(t *testing.T) {
	actor := newRecordingActor(Rect{})
	e := fastEngine(WithTick(5 * time.Millisecond))

	var mu sync.Mutex
	var seen []Point
	cb := func(x, y float64) bool {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, Point{x, y})
		return true
	}

	report, err := e.MoveTo(context.Background(), Request{TargetX: 60, TargetY: 0, Speed: 5, Side: "topleft", OnStep: cb}, actor)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, Point{60, 0}, seen[len(seen)-1])
	assert.False(t, report.Forgotten)
	assert.Equal(t, len(seen), report.CallbackCalls)
}

func TestMoveTo_SlowFirstCallbackIsForgotten(t *testing.T) {
	actor := newRecordingActor(Rect{})
	e := New(WithLogger(quietLogger()))

	var calls atomic.Int32
	cb := func(x, y float64) bool {
		if calls.Add(1) == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		return true
	}

	report, err := e.MoveTo(context.Background(), Request{TargetX: 100, TargetY: 0, Speed: 5, Side: "topleft", OnStep: cb}, actor)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "forgotten callback must not be invoked again")
	assert.True(t, report.Forgotten)
	assert.Equal(t, 1, report.CallbackCalls)

	places := actor.placements()
	require.Greater(t, len(places), 5)
	assert.Equal(t, Point{100, 0}, places[len(places)-1].p)

	// Only the first step waits on the watchdog; afterwards the loop keeps
	// the fixed tick.
	for i := 2; i < len(places); i++ {
		gap := places[i].at.Sub(places[i-1].at)
		assert.Less(t, gap, 80*time.Millisecond, "gap before step %d", i)
	}
}

func TestMoveTo_BusyCallbackForgottenAfterSkips(t *testing.T) {
	actor := newRecordingActor(Rect{})
	e := fastEngine(WithTick(2*time.Millisecond), WithWatchdog(50*time.Millisecond), WithMaxSkips(3))

	release := make(chan struct{})
	defer close(release)

	var calls atomic.Int32
	cb := func(x, y float64) bool {
		if calls.Add(1) == 2 {
			<-release
		}
		return true
	}

	report, err := e.MoveTo(context.Background(), Request{TargetX: 200, TargetY: 0, Speed: 5, Side: "topleft", OnStep: cb}, actor)
	require.NoError(t, err)

	assert.True(t, report.Forgotten)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 4, report.Skipped)
	assert.Equal(t, Point{200, 0}, actor.placements()[len(actor.placements())-1].p)
}

func TestMoveTo_CallbackReturningFalseStops(t *testing.T) {
	actor := newRecordingActor(Rect{})
	e := fastEngine()

	var calls atomic.Int32
	cb := func(x, y float64) bool {
		calls.Add(1)
		return false
	}

	_, err := e.MoveTo(context.Background(), Request{TargetX: 100, TargetY: 0, Speed: 5, Side: "topleft", OnStep: cb}, actor)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMoveTo_PanickingCallbackDoesNotStopMove(t *testing.T) {
	actor := newRecordingActor(Rect{})
	e := fastEngine()

	cb := func(x, y float64) bool { panic("boom") }

	report, err := e.MoveTo(context.Background(), Request{TargetX: 40, TargetY: 0, Speed: 5, Side: "topleft", OnStep: cb}, actor)
	require.NoError(t, err)
	assert.True(t, report.Forgotten)
	assert.Equal(t, Point{40, 0}, report.Final)
}

func TestMoveTo_ContextCancelled(t *testing.T) {
	actor := newRecordingActor(Rect{})
	e := New(WithLogger(quietLogger()), WithTick(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.MoveTo(ctx, Request{TargetX: 1000, TargetY: 0, Side: "topleft"}, actor)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, actor.placements(), 1)
}
