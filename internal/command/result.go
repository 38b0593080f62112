package command

import (
	"github.com/roach88/puppet/internal/scheduler"
	"github.com/roach88/puppet/internal/value"
)

// Result is the outcome of one dispatch.
type Result struct {
	Code  ErrorCode
	Value value.Value

	// Message is the diagnostic written for failures; empty on success.
	Message string

	// Exit is set by the exit command.
	Exit bool

	// Job is the job enqueued by moveto, if any.
	Job *scheduler.Job
}

// OK reports whether the command did not fail.
func (r Result) OK() bool {
	return !r.Code.Failed()
}

func success(v value.Value) Result {
	return Result{Code: Success, Value: v}
}
