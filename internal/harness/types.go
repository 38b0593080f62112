package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/puppet/internal/command"
	"github.com/roach88/puppet/internal/motion"
	"github.com/roach88/puppet/internal/value"
)

// Entry is one dispatched line in a transcript.
type Entry struct {
	Line  string
	Code  command.ErrorCode
	Value value.Value

	// Output holds the diagnostic lines written while the step ran,
	// including those of a move it enqueued.
	Output []string

	// JobErr is the error of the move enqueued by this step, if it failed.
	JobErr string
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and the final clause held.
	Pass bool

	Transcript []Entry

	// Errors describes each failed check. Empty if Pass is true.
	Errors []string

	// Final is the actor's bounding box after the scheduler drained.
	Final motion.Rect

	// Jobs counts the moves the scenario enqueued.
	Jobs int
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Transcript: []Entry{},
		Errors:     []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Render formats the transcript for golden comparison:
//
//	> line
//	! diagnostic
//	~ job error
//	= Code kind:value
//
// followed by one "@" line with the final bounding box.
func (r *Result) Render() []byte {
	var b strings.Builder
	for _, e := range r.Transcript {
		fmt.Fprintf(&b, "> %s\n", e.Line)
		for _, msg := range e.Output {
			fmt.Fprintf(&b, "! %s\n", msg)
		}
		if e.JobErr != "" {
			fmt.Fprintf(&b, "~ %s\n", e.JobErr)
		}
		if e.Value != nil {
			fmt.Fprintf(&b, "= %s %s:%s\n", e.Code.Name(), e.Value.Kind(), e.Value)
		} else {
			fmt.Fprintf(&b, "= %s\n", e.Code.Name())
		}
	}
	f := r.Final
	fmt.Fprintf(&b, "@ x=%g y=%g w=%g h=%g jobs=%d\n", f.X, f.Y, f.Width, f.Height, r.Jobs)
	return []byte(b.String())
}
