package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/puppet/internal/command"
	"github.com/roach88/puppet/internal/motion"
	"github.com/roach88/puppet/internal/scheduler"
	"github.com/roach88/puppet/internal/stage"
	"github.com/roach88/puppet/internal/testutil"
	"github.com/roach88/puppet/internal/value"
	"github.com/roach88/puppet/internal/vars"
	"github.com/roach88/puppet/internal/windows"
)

// DefaultTimeout bounds a whole scenario run.
const DefaultTimeout = 30 * time.Second

type runConfig struct {
	tick    time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a run.
type Option func(*runConfig)

// WithTick sets the motion step interval. Scenarios default to 1ms.
func WithTick(d time.Duration) Option {
	return func(c *runConfig) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithTimeout bounds the run.
func WithTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger handed to every component. Runs are silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario against a fresh interpreter.
//
// A returned error means the run itself broke (timeout, scheduler
// failure); failed expectations are reported through Result.Errors.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{
		tick:    time.Millisecond,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	box := DefaultStage
	if s.Stage != nil {
		box = *s.Stage
	}

	actor := stage.NewVirtual(box.Bounds(), stage.WithName(s.Name))
	sched := scheduler.New(
		scheduler.WithLogger(cfg.logger),
		scheduler.WithIDGenerator(testutil.NewSequentialIDs("job")),
		scheduler.WithNow(testutil.NewFakeTime().Now),
	)
	engine := motion.New(motion.WithTick(cfg.tick), motion.WithLogger(cfg.logger))
	out := &outputBuffer{}

	d := command.New(vars.New(), sched, engine,
		command.WithStage(actor),
		command.WithWindows(windows.NewRegistry(s.Windows...)),
		command.WithOutput(out),
		command.WithLogger(cfg.logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	workerCtx, stopWorker := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		return sched.Run(workerCtx)
	})
	defer func() {
		stopWorker()
		_ = g.Wait()
	}()

	result := NewResult()
	for i, step := range s.Steps {
		r := d.Dispatch(ctx, step.Command)

		entry := Entry{Line: step.Command, Code: r.Code, Value: r.Value}
		if r.Job != nil {
			result.Jobs++
			if err := r.Job.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("step %d: waiting for %s: %w", i, r.Job, ctx.Err())
				}
				entry.JobErr = err.Error()
			}
		}
		entry.Output = out.take()
		result.Transcript = append(result.Transcript, entry)

		if step.Expect != nil {
			checkExpect(result, i, step, r)
		}
		if r.Exit {
			break
		}
	}

	if err := sched.Drain(ctx); err != nil {
		return nil, fmt.Errorf("draining scheduler: %w", err)
	}
	result.Final = actor.Bounds()

	if s.Final != nil {
		checkFinal(result, s.Final)
	}
	return result, nil
}

func checkExpect(result *Result, i int, step Step, r command.Result) {
	want, _ := command.ParseCode(step.Expect.Code)
	if r.Code != want {
		result.AddError("step %d (%q): expected code %s, got %s", i, step.Command, want.Name(), r.Code.Name())
	}

	if step.Expect.Kind != "" {
		kind, _ := value.ParseKind(step.Expect.Kind)
		switch {
		case r.Value == nil:
			result.AddError("step %d (%q): expected %s value, got none", i, step.Command, kind)
		case r.Value.Kind() != kind:
			result.AddError("step %d (%q): expected %s value, got %s", i, step.Command, kind, r.Value.Kind())
		}
	}

	if step.Expect.Value != nil {
		got := "<none>"
		if r.Value != nil {
			got = r.Value.String()
		}
		if got != *step.Expect.Value {
			result.AddError("step %d (%q): expected value %q, got %q", i, step.Command, *step.Expect.Value, got)
		}
	}
}

func checkFinal(result *Result, f *FinalClause) {
	anchor, err := finalAnchor(f.Anchor)
	if err != nil {
		result.AddError("final: %v", err)
		return
	}

	tol := f.Tolerance
	if tol == 0 {
		tol = 1e-9
	}
	got := result.Final.Anchor(anchor)
	want := motion.Point{X: f.X, Y: f.Y}
	if math.Sqrt(motion.DistanceSquared(got, want)) > tol {
		result.AddError("final: %s at %s, expected %s", anchor, got, want)
	}
}

// outputBuffer collects dispatcher diagnostics. Moves write from the
// scheduler goroutine, so access is locked.
type outputBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (o *outputBuffer) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Write(p)
}

func (o *outputBuffer) take() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := strings.TrimRight(o.buf.String(), "\n")
	o.buf.Reset()
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// IsTimeout reports whether a Run error came from the run deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
