package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is a single-worker FIFO job runner.
//
// Thread-safety model:
//   - Enqueue, Start, Stop, Drain, Len, Close: safe from any goroutine
//   - Run: called from exactly one goroutine
type Scheduler struct {
	queue  *jobQueue
	clock  *Clock
	ids    IDGenerator
	logger *slog.Logger
	now    func() time.Time

	observers []Observer

	// enqMu makes sequence assignment and push one step, so Seq order is
	// queue order.
	enqMu sync.Mutex

	running atomic.Bool
	worker  atomic.Bool

	mu      sync.Mutex
	pending int           // queued + executing
	idle    chan struct{} // closed while pending == 0
	current *Job
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for job lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithIDGenerator replaces the UUIDv7 id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Scheduler) { s.ids = g }
}

// WithClock replaces the sequence clock, e.g. to continue a journal.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithObserver registers an observer for job lifecycle events.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observers = append(s.observers, o) }
}

// WithStopped creates the scheduler in the stopped state; jobs queue up
// until Start is called.
func WithStopped() Option {
	return func(s *Scheduler) { s.running.Store(false) }
}

// WithNow sets the wall clock used for event timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a started Scheduler. The caller must run Run on its own
// goroutine for jobs to execute.
func New(opts ...Option) *Scheduler {
	idle := make(chan struct{})
	close(idle)

	s := &Scheduler{
		queue:  newJobQueue(),
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		now:    time.Now,
		idle:   idle,
	}
	s.running.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue appends a job to the tail of the queue and returns it.
// It fails with ErrClosed after Close.
func (s *Scheduler) Enqueue(name string, fn Func) (*Job, error) {
	job := &Job{
		ID:   s.ids.Generate(),
		Name: name,
		fn:   fn,
		done: make(chan struct{}),
	}

	s.enqMu.Lock()
	defer s.enqMu.Unlock()

	if s.queue.isClosed() {
		return nil, ErrClosed
	}
	job.Seq = s.clock.Next()
	job.Enqueued = s.now()
	s.busy()
	s.emit(JobEvent{Job: job, State: StateQueued})
	s.queue.push(job)
	return job, nil
}

// Start lets the worker take the next queued job.
func (s *Scheduler) Start() {
	s.running.Store(true)
	s.queue.kick()
}

// Stop keeps the worker from starting further jobs. A job that is already
// executing runs to completion.
func (s *Scheduler) Stop() {
	s.running.Store(false)
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Len returns the number of queued plus executing jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Current returns the executing job, or nil.
func (s *Scheduler) Current() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Drain blocks until no job is queued or executing, or ctx ends. While the
// scheduler is stopped with jobs queued, Drain waits for ctx.
func (s *Scheduler) Drain(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.pending == 0 {
			s.mu.Unlock()
			return nil
		}
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// Close rejects further Enqueue calls. The worker finishes the jobs already
// queued (while started) and then Run returns.
func (s *Scheduler) Close() {
	s.enqMu.Lock()
	defer s.enqMu.Unlock()
	s.queue.close()
}

// Run is the worker loop. It returns nil after Close once nothing runnable is
// left, or ctx.Err() when ctx ends. Jobs still queued at that point complete
// with ErrClosed.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.worker.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.logger.Debug("scheduler worker starting")
	defer s.logger.Debug("scheduler worker stopped")

	for {
		if err := ctx.Err(); err != nil {
			s.abandon()
			return err
		}

		if s.running.Load() {
			if job, ok := s.queue.pop(); ok {
				s.execute(ctx, job)
				continue
			}
		}

		if s.queue.isClosed() {
			s.abandon()
			return nil
		}

		select {
		case <-ctx.Done():
		case <-s.queue.wait():
		}
	}
}

// execute runs one job on the worker goroutine. A failing or panicking job is
// logged and completed; the loop always moves on.
func (s *Scheduler) execute(ctx context.Context, job *Job) {
	s.mu.Lock()
	s.current = job
	s.mu.Unlock()

	s.emit(JobEvent{Job: job, State: StateStarted})
	s.logger.Debug("job started", "seq", job.Seq, "name", job.Name, "id", job.ID)

	err := s.call(ctx, job)

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", "seq", job.Seq, "name", job.Name, "id", job.ID, "error", err)
		job.complete(err)
		s.emit(JobEvent{Job: job, State: StateFailed, Err: err})
	} else {
		job.complete(nil)
		s.emit(JobEvent{Job: job, State: StateFinished})
	}
	s.settle()
}

func (s *Scheduler) call(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	if job.fn == nil {
		return errors.New("job has no body")
	}
	return job.fn(ctx)
}

// abandon completes every queued job with ErrClosed.
func (s *Scheduler) abandon() {
	for _, job := range s.queue.drain() {
		job.complete(ErrClosed)
		s.emit(JobEvent{Job: job, State: StateAbandoned, Err: ErrClosed})
		s.settle()
	}
}

func (s *Scheduler) busy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

func (s *Scheduler) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

func (s *Scheduler) emit(ev JobEvent) {
	if len(s.observers) == 0 {
		return
	}
	ev.At = s.now()
	for _, o := range s.observers {
		o(ev)
	}
}
