package motion

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// StepFunc observes the anchor position after each step. Returning false
// asks the engine to stop sending further steps for this move.
type StepFunc func(x, y float64) bool

// callbackStream drives a StepFunc for one move.
//
// At most one invocation is in flight at a time. The stream is owned by the
// move loop goroutine; only the invocation goroutines touch declined.
type callbackStream struct {
	fn       StepFunc
	watchdog time.Duration
	maxSkips int
	logger   *slog.Logger

	started   bool
	forgotten bool
	skips     int
	inflight  chan struct{}
	declined  atomic.Bool

	calls   int
	skipped int
}

func newCallbackStream(fn StepFunc, watchdog time.Duration, maxSkips int, logger *slog.Logger) *callbackStream {
	return &callbackStream{
		fn:       fn,
		watchdog: watchdog,
		maxSkips: maxSkips,
		logger:   logger,
	}
}

func (c *callbackStream) live() bool {
	if c.fn == nil || c.forgotten {
		return false
	}
	if c.declined.Load() {
		c.forgotten = true
		c.logger.Debug("callback declined further steps", "calls", c.calls)
		return false
	}
	return true
}

// invoke starts fn(p) on a new goroutine and returns its completion channel.
func (c *callbackStream) invoke(p Point) chan struct{} {
	done := make(chan struct{})
	c.calls++
	fn := c.fn
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("callback panicked", "panic", fmt.Sprint(r))
				c.declined.Store(true)
			}
		}()
		if !fn(p.X, p.Y) {
			c.declined.Store(true)
		}
	}()
	return done
}

// step offers position p to the callback.
func (c *callbackStream) step(p Point) {
	if !c.live() {
		return
	}

	if !c.started {
		c.started = true
		c.inflight = c.invoke(p)
		if !waitFor(c.inflight, c.watchdog) {
			c.abort("took too long to respond")
		}
		return
	}

	select {
	case <-c.inflight:
		c.skips = 0
		c.inflight = c.invoke(p)
	default:
		c.skips++
		c.skipped++
		c.logger.Debug("callback skipped frame", "skips", c.skips)
		if c.skips > c.maxSkips {
			c.abort("skipped too many frames")
		}
	}
}

// finish waits for any in-flight invocation and delivers the exact target.
func (c *callbackStream) finish(target Point) {
	if !c.live() {
		return
	}
	if c.inflight != nil && !waitFor(c.inflight, c.watchdog) {
		c.abort("took too long to finish")
		return
	}
	if !c.live() {
		return
	}
	c.started = true
	c.inflight = c.invoke(target)
	if !waitFor(c.inflight, c.watchdog) {
		c.abort("took too long to finish")
	}
}

// abort forgets the callback for the rest of the move. A goroutine still
// running fn is left to finish on its own.
func (c *callbackStream) abort(reason string) {
	c.forgotten = true
	c.logger.Warn("callback aborted", "reason", reason, "calls", c.calls, "skipped", c.skipped)
}

func waitFor(done <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
