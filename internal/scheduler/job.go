package scheduler

import (
	"context"
	"fmt"
	"time"
)

// Func is the body of a job. ctx is cancelled only when the worker itself is
// shutting down.
type Func func(ctx context.Context) error

// Job is one unit of scheduled work.
//
// ID, Seq, Name and Enqueued are fixed at enqueue time. Err is valid once
// Done is closed.
type Job struct {
	ID       string
	Seq      int64
	Name     string
	Enqueued time.Time

	fn   Func
	done chan struct{}
	err  error
}

// Done is closed when the job has finished, failed, or been abandoned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err returns the job's result. It returns nil while the job is pending.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Wait blocks until the job is done or ctx ends.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) String() string {
	return fmt.Sprintf("job %d %s (%s)", j.Seq, j.Name, j.ID)
}

func (j *Job) complete(err error) {
	j.err = err
	close(j.done)
}

// State is a job lifecycle stage reported to observers.
type State string

const (
	StateQueued    State = "queued"
	StateStarted   State = "started"
	StateFinished  State = "finished"
	StateFailed    State = "failed"
	StateAbandoned State = "abandoned"
)

// JobEvent is one lifecycle transition of a job.
type JobEvent struct {
	Job   *Job
	State State
	Err   error
	At    time.Time
}

// Observer receives job events. Queued events are delivered on the enqueuing
// goroutine, all others on the worker, so observers must be safe for
// concurrent use and must not block.
type Observer func(JobEvent)
