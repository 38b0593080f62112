package stage

import (
	"errors"
	"sync"

	"github.com/roach88/puppet/internal/motion"
)

// ErrNotCreated is returned by operations that need a shown actor.
var ErrNotCreated = errors.New("actor has not been created")

// Placement is one recorded Place call.
type Placement struct {
	Anchor motion.Anchor
	At     motion.Point
}

// Virtual is an actor with no surface. It keeps exact float geometry and
// records what was done to it, which makes it the stage used by scenarios
// and tests.
//
// Thread-safety: safe for concurrent use; Place is called from the
// scheduler goroutine while the dispatcher reads state.
type Virtual struct {
	mu      sync.Mutex
	name    string
	bounds  motion.Rect
	created bool
	visible bool

	record  bool
	places  []Placement
	speech  []string
	notices []string

	onChange func(Snapshot)
}

// Snapshot is the observable state of an actor.
type Snapshot struct {
	Name    string
	Bounds  motion.Rect
	Created bool
	Visible bool
	Speech  string
	Notice  string
}

// VirtualOption configures a Virtual.
type VirtualOption func(*Virtual)

// WithName names the actor.
func WithName(name string) VirtualOption {
	return func(v *Virtual) { v.name = name }
}

// WithRecording keeps every placement in memory. Off by default since a
// long session places the actor thousands of times.
func WithRecording() VirtualOption {
	return func(v *Virtual) { v.record = true }
}

// withChangeHook is used by Terminal to redraw on every change.
func withChangeHook(fn func(Snapshot)) VirtualOption {
	return func(v *Virtual) { v.onChange = fn }
}

// NewVirtual creates an actor that will occupy bounds once shown.
func NewVirtual(bounds motion.Rect, opts ...VirtualOption) *Virtual {
	v := &Virtual{name: "puppet", bounds: bounds}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Show creates the actor on first call and makes it visible.
func (v *Virtual) Show() error {
	v.mu.Lock()
	v.created = true
	v.visible = true
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
	return nil
}

// Hide makes the actor invisible. It stays created.
func (v *Virtual) Hide() error {
	v.mu.Lock()
	if !v.created {
		v.mu.Unlock()
		return ErrNotCreated
	}
	v.visible = false
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
	return nil
}

func (v *Virtual) Created() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.created
}

func (v *Virtual) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

// Say shows text in the actor's speech bubble.
func (v *Virtual) Say(text string) error {
	v.mu.Lock()
	if !v.created {
		v.mu.Unlock()
		return ErrNotCreated
	}
	v.speech = append(v.speech, text)
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
	return nil
}

// Notify raises a notification attributed to the actor.
func (v *Virtual) Notify(text string) error {
	v.mu.Lock()
	if !v.created {
		v.mu.Unlock()
		return ErrNotCreated
	}
	v.notices = append(v.notices, text)
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
	return nil
}

// Bounds returns the current bounding box.
func (v *Virtual) Bounds() motion.Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

// Place moves the actor so that anchor sits on p.
func (v *Virtual) Place(anchor motion.Anchor, p motion.Point) {
	v.mu.Lock()
	v.bounds = v.bounds.WithAnchorAt(anchor, p)
	if v.record {
		v.places = append(v.places, Placement{Anchor: anchor, At: p})
	}
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
}

// Placements returns the recorded placements, if recording is on.
func (v *Virtual) Placements() []Placement {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Placement(nil), v.places...)
}

// Speech returns everything the actor has said, oldest first.
func (v *Virtual) Speech() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.speech...)
}

// Notices returns every notification, oldest first.
func (v *Virtual) Notices() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.notices...)
}

// ClearText drops the speech bubble and notification history.
func (v *Virtual) ClearText() {
	v.mu.Lock()
	v.speech = nil
	v.notices = nil
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.changed(snap)
}

// Snapshot returns the current state.
func (v *Virtual) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *Virtual) snapshotLocked() Snapshot {
	s := Snapshot{
		Name:    v.name,
		Bounds:  v.bounds,
		Created: v.created,
		Visible: v.visible,
	}
	if n := len(v.speech); n > 0 {
		s.Speech = v.speech[n-1]
	}
	if n := len(v.notices); n > 0 {
		s.Notice = v.notices[n-1]
	}
	return s
}

func (v *Virtual) changed(s Snapshot) {
	if v.onChange != nil {
		v.onChange(s)
	}
}
