package scheduler

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Enqueue after Close, and is the result of jobs that
// were still queued when the worker exited.
var ErrClosed = errors.New("scheduler closed")

// ErrAlreadyRunning is returned when Run is called a second time.
var ErrAlreadyRunning = errors.New("scheduler worker already running")

// PanicError is the result of a job whose body panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

// IsPanic reports whether err came from a recovered job panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
