package command

import (
	"context"

	"github.com/roach88/puppet/internal/motion"
	"github.com/roach88/puppet/internal/scheduler"
	"github.com/roach88/puppet/internal/value"
)

// Stage is the actor collaborator. It owns the visual surface; the
// dispatcher only checks preconditions and forwards calls.
type Stage interface {
	motion.Actor

	// Show creates the actor on first use and makes it visible.
	Show() error
	Hide() error
	Created() bool
	Visible() bool
	Say(text string) error
	Notify(text string) error
}

// Windows is the window-system collaborator.
type Windows interface {
	Find(title string) (value.Pointer, bool)
	List() value.PointerSeq
	Title(h value.Pointer) (string, error)
	SetEnabled(h value.Pointer, enabled bool) error
	BringToTop(h value.Pointer) error
	SetFocus(h value.Pointer) error
	Focus() value.Pointer
	IsEnabled(h value.Pointer) (bool, error)
	IsMinimized(h value.Pointer) (bool, error)
	IsVisible(h value.Pointer) (bool, error)
	IsWindow(h value.Pointer) bool
}

// Console is the output surface behind cls/clearscreen.
type Console interface {
	Clear() error
}

// Jobs is the scheduler as seen by the dispatcher.
type Jobs interface {
	Enqueue(name string, fn scheduler.Func) (*scheduler.Job, error)
	Len() int
	Drain(ctx context.Context) error
}

// Mover runs one motion request against an actor.
type Mover interface {
	MoveTo(ctx context.Context, req motion.Request, actor motion.Actor) (motion.Report, error)
}
