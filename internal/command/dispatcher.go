package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/text/cases"

	"github.com/roach88/puppet/internal/motion"
	"github.com/roach88/puppet/internal/vars"
)

// Recorder observes every dispatched line and its result, e.g. to journal
// them. It is called with the dispatcher lock held.
type Recorder func(line string, r Result)

type handler func(d *Dispatcher, ctx context.Context, l line) Result

// Dispatcher is the command interpreter. It holds no state of its own
// between calls beyond its collaborators.
//
// Dispatch calls are serialized by an internal mutex, so a Dispatcher may be
// shared by several readers. Motion jobs run on the scheduler and never take
// that mutex.
type Dispatcher struct {
	mu sync.Mutex

	vars    *vars.Store
	jobs    Jobs
	mover   Mover
	stage   Stage
	windows Windows
	console Console

	out      *lockedWriter
	logger   *slog.Logger
	recorder Recorder
	onStep   motion.StepFunc

	defaultSpeed float64
	caser        cases.Caser
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStage sets the actor collaborator.
func WithStage(s Stage) Option {
	return func(d *Dispatcher) { d.stage = s }
}

// WithWindows sets the window-system collaborator.
func WithWindows(w Windows) Option {
	return func(d *Dispatcher) { d.windows = w }
}

// WithConsole sets the collaborator cleared by cls/clearscreen.
func WithConsole(c Console) Option {
	return func(d *Dispatcher) { d.console = c }
}

// WithOutput sets where diagnostics are written. Motion jobs write their
// failures there too, from the scheduler goroutine.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) { d.out = &lockedWriter{w: w} }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithRecorder registers a hook that sees every dispatched line.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithStepFunc attaches a step callback to every motion request.
func WithStepFunc(fn motion.StepFunc) Option {
	return func(d *Dispatcher) { d.onStep = fn }
}

// WithDefaultSpeed sets the speed that replaces an explicit 0.
func WithDefaultSpeed(speed float64) Option {
	return func(d *Dispatcher) {
		if speed > 0 {
			d.defaultSpeed = speed
		}
	}
}

// New creates a Dispatcher over a variable store, a job queue and a mover.
func New(store *vars.Store, jobs Jobs, mover Mover, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		vars:         store,
		jobs:         jobs,
		mover:        mover,
		out:          &lockedWriter{w: io.Discard},
		logger:       slog.Default(),
		defaultSpeed: motion.DefaultSpeed,
		caser:        newLowerCaser(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Vars returns the variable store.
func (d *Dispatcher) Vars() *vars.Store {
	return d.vars
}

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"get":    (*Dispatcher).get,
		"print":  (*Dispatcher).get,
		"set":    (*Dispatcher).set,
		"delete": (*Dispatcher).delete,
		"clear":  (*Dispatcher).clear,
		"exit":   (*Dispatcher).exit,

		"cls":         (*Dispatcher).clearScreen,
		"clearscreen": (*Dispatcher).clearScreen,

		"moveto": (*Dispatcher).moveTo,
		"jobs":   (*Dispatcher).jobCount,
		"wait":   (*Dispatcher).wait,

		"getwindow":      (*Dispatcher).getWindow,
		"getwindows":     (*Dispatcher).getWindows,
		"getwindowtitle": (*Dispatcher).getWindowTitle,
		"enable":         (*Dispatcher).enable,
		"disable":        (*Dispatcher).disable,
		"bringtotop":     (*Dispatcher).bringToTop,
		"setfocus":       (*Dispatcher).setFocus,
		"getfocus":       (*Dispatcher).getFocus,
		"isenabled":      (*Dispatcher).isEnabled,
		"isminimized":    (*Dispatcher).isMinimized,
		"isvisible":      (*Dispatcher).isVisible,
		"iswindow":       (*Dispatcher).isWindow,

		"say":    (*Dispatcher).say,
		"talk":   (*Dispatcher).say,
		"notify": (*Dispatcher).notify,
		"show":   (*Dispatcher).show,
		"hide":   (*Dispatcher).hide,
	}
}

// valueCommands may appear on the right of an assignment.
var valueCommands = map[string]bool{
	"get":            true,
	"print":          true,
	"getwindow":      true,
	"getwindows":     true,
	"getwindowtitle": true,
	"getfocus":       true,
	"isenabled":      true,
	"isminimized":    true,
	"isvisible":      true,
	"iswindow":       true,
	"jobs":           true,
}

// Known reports whether name is a command.
func Known(name string) bool {
	_, ok := handlers[name]
	return ok
}

// Check reports whether input names a command or an assignment, without
// executing anything. It returns Success, NoCommandGiven or InvalidCommand
// along with the lowercased command name.
func Check(input string) (ErrorCode, string) {
	l := parseLine(newLowerCaser(), input)
	if len(l.tokens) == 0 {
		return NoCommandGiven, ""
	}
	name := l.name()
	if Known(name) {
		return Success, name
	}
	if l.isAssignment() {
		return Success, name
	}
	return InvalidCommand, name
}

// Dispatch executes one command line.
//
// ctx bounds only the commands that block (wait); motion jobs are enqueued
// and run to completion on the scheduler.
func (d *Dispatcher) Dispatch(ctx context.Context, input string) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.dispatch(ctx, parseLine(d.caser, input))
	if d.recorder != nil {
		d.recorder(input, r)
	}
	return r
}

func (d *Dispatcher) dispatch(ctx context.Context, l line) Result {
	if len(l.tokens) == 0 {
		return d.fail(NoCommandGiven, "")
	}
	if h, ok := handlers[l.name()]; ok {
		return h(d, ctx, l)
	}
	if l.isAssignment() {
		return d.assign(ctx, l)
	}
	return d.fail(InvalidCommand, fmt.Sprintf("%q", l.name()))
}

// fail is the single error path: it writes the diagnostic and returns the
// matching result.
func (d *Dispatcher) fail(code ErrorCode, detail string) Result {
	msg := code.String()
	if detail != "" {
		msg += ": " + detail
	}
	d.out.println(msg)
	return Result{Code: code, Message: msg}
}

// notice writes a diagnostic that is not tied to a dispatch result, e.g. a
// motion job failing on the scheduler.
func (d *Dispatcher) notice(format string, args ...any) {
	d.out.println(fmt.Sprintf(format, args...))
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) println(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = io.WriteString(w.w, s+"\n")
}
