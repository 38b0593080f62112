package motion

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Defaults for a move.
const (
	DefaultSpeed        = 5.0
	DefaultTick         = 10 * time.Millisecond
	DefaultWatchdog     = 100 * time.Millisecond
	DefaultMaxSkips     = 10
	DefaultCloseEpsilon = 1.0
)

// Actor is the movable entity as seen by the engine.
//
// Bounds is read fresh whenever anchors are needed. Place moves the actor so
// that anchor sits on p; it is called from the move loop goroutine.
type Actor interface {
	Bounds() Rect
	Place(anchor Anchor, p Point)
}

// Request describes one move. It is passed by value into the job that runs it.
type Request struct {
	TargetX, TargetY float64

	// Speed is the distance advanced per tick. Values <= 0 use the engine default.
	Speed float64

	// Side is a side name accepted by ParseSide. Empty means DefaultSide.
	Side string

	// OnStep, if set, observes each intermediate position and the final target.
	OnStep StepFunc
}

// Target returns the requested target point.
func (r Request) Target() Point {
	return Point{r.TargetX, r.TargetY}
}

// Report summarizes a finished move.
type Report struct {
	Anchor        Anchor
	Final         Point
	Steps         int
	CallbackCalls int
	Skipped       int
	Forgotten     bool
}

// Engine performs moves. An Engine has no per-move state and may be shared,
// but the scheduler only ever runs one move at a time.
type Engine struct {
	tick         time.Duration
	watchdog     time.Duration
	maxSkips     int
	defaultSpeed float64
	epsilon      float64
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTick sets the sleep between steps.
func WithTick(d time.Duration) Option {
	return func(e *Engine) { e.tick = d }
}

// WithWatchdog sets how long the engine waits on a callback invocation.
func WithWatchdog(d time.Duration) Option {
	return func(e *Engine) { e.watchdog = d }
}

// WithMaxSkips sets how many consecutive skipped steps a callback may cause
// before it is forgotten.
func WithMaxSkips(n int) Option {
	return func(e *Engine) { e.maxSkips = n }
}

// WithDefaultSpeed sets the speed used when a request has none.
func WithDefaultSpeed(speed float64) Option {
	return func(e *Engine) { e.defaultSpeed = speed }
}

// WithCloseEpsilon sets the slack added to the stop radius.
func WithCloseEpsilon(eps float64) Option {
	return func(e *Engine) { e.epsilon = eps }
}

// WithLogger sets the logger for watchdog and move diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine with the given options applied over the defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		tick:         DefaultTick,
		watchdog:     DefaultWatchdog,
		maxSkips:     DefaultMaxSkips,
		defaultSpeed: DefaultSpeed,
		epsilon:      DefaultCloseEpsilon,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !(e.defaultSpeed > 0) {
		e.defaultSpeed = DefaultSpeed
	}
	return e
}

// MoveTo drives actor toward req's target and blocks until the anchor has
// been snapped onto it.
//
// An unknown side fails before the actor is touched. Cancelling ctx is only
// meant for process shutdown: the move stops where it is and ctx.Err() is
// returned.
func (e *Engine) MoveTo(ctx context.Context, req Request, actor Actor) (Report, error) {
	sideName := req.Side
	if sideName == "" {
		sideName = DefaultSide
	}
	side, err := ParseSide(sideName)
	if err != nil {
		return Report{}, fmt.Errorf("move to %v: %w", req.Target(), err)
	}

	target := req.Target()
	speed := e.normalizeSpeed(req.Speed)
	anchor := side.Resolve(actor.Bounds(), target)
	pos := actor.Bounds().Anchor(anchor)

	report := Report{Anchor: anchor}
	stream := newCallbackStream(req.OnStep, e.watchdog, e.maxSkips, e.logger)

	radius := speed*math.Sqrt2 + e.epsilon
	for DistanceSquared(pos, target) > radius*radius {
		theta := math.Atan2(target.Y-pos.Y, target.X-pos.X)
		pos.X += speed * math.Cos(theta)
		pos.Y += speed * math.Sin(theta)

		actor.Place(anchor, pos)
		report.Steps++
		stream.step(pos)

		if err := sleepContext(ctx, e.tick); err != nil {
			report.Final = pos
			report.fill(stream)
			return report, err
		}
	}

	actor.Place(anchor, target)
	stream.finish(target)

	report.Final = target
	report.fill(stream)
	e.logger.Debug("move finished",
		"anchor", anchor.String(),
		"target", target.String(),
		"steps", report.Steps,
	)
	return report, nil
}

func (e *Engine) normalizeSpeed(speed float64) float64 {
	if !(speed > 0) || math.IsInf(speed, 0) {
		return e.defaultSpeed
	}
	return speed
}

func (r *Report) fill(c *callbackStream) {
	r.CallbackCalls = c.calls
	r.Skipped = c.skipped
	r.Forgotten = c.forgotten
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
