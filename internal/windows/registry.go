// Package windows is an in-memory window system. It stands in for the
// operating-system window APIs behind the window commands.
package windows

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/puppet/internal/value"
)

// HandleError reports an operation on a handle that is not registered.
type HandleError struct {
	Handle value.Pointer
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("invalid window handle %d", uint64(e.Handle))
}

// Window is one registered window.
type Window struct {
	Handle    value.Pointer
	Title     string
	Enabled   bool
	Minimized bool
	Visible   bool
}

// Registry holds windows by handle. Handles are allocated from firstHandle
// upward and never reused.
//
// Thread-safety: safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	windows map[value.Pointer]*Window
	top     []value.Pointer // z-order, topmost last
	focus   value.Pointer
	next    value.Pointer
}

const firstHandle value.Pointer = 0x10000

// NewRegistry creates a registry with one visible, enabled window per title.
func NewRegistry(titles ...string) *Registry {
	r := &Registry{
		windows: make(map[value.Pointer]*Window),
		next:    firstHandle,
	}
	for _, title := range titles {
		r.Open(title)
	}
	return r
}

// Open registers a new window and returns its handle.
func (r *Registry) Open(title string) value.Pointer {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.next
	r.next++
	r.windows[h] = &Window{Handle: h, Title: title, Enabled: true, Visible: true}
	r.top = append(r.top, h)
	return h
}

// Close unregisters h.
func (r *Registry) Close(h value.Pointer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[h]; !ok {
		return &HandleError{Handle: h}
	}
	delete(r.windows, h)
	r.top = removeHandle(r.top, h)
	if r.focus == h {
		r.focus = 0
	}
	return nil
}

// SetMinimized changes the minimized flag of h.
func (r *Registry) SetMinimized(h value.Pointer, minimized bool) error {
	return r.update(h, func(w *Window) { w.Minimized = minimized })
}

// SetVisible changes the visible flag of h.
func (r *Registry) SetVisible(h value.Pointer, visible bool) error {
	return r.update(h, func(w *Window) { w.Visible = visible })
}

// Find returns the first window, in handle order, whose title matches
// case-insensitively.
func (r *Registry) Find(title string) (value.Pointer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.sortedLocked() {
		if strings.EqualFold(r.windows[h].Title, title) {
			return h, true
		}
	}
	return 0, false
}

// List returns every handle in ascending order.
func (r *Registry) List() value.PointerSeq {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return value.PointerSeq(r.sortedLocked())
}

// Title returns the title of h.
func (r *Registry) Title(h value.Pointer) (string, error) {
	w, err := r.get(h)
	if err != nil {
		return "", err
	}
	return w.Title, nil
}

func (r *Registry) SetEnabled(h value.Pointer, enabled bool) error {
	return r.update(h, func(w *Window) { w.Enabled = enabled })
}

// BringToTop moves h to the top of the z-order.
func (r *Registry) BringToTop(h value.Pointer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[h]; !ok {
		return &HandleError{Handle: h}
	}
	r.top = append(removeHandle(r.top, h), h)
	return nil
}

// Topmost returns the top window, or 0 when there is none.
func (r *Registry) Topmost() value.Pointer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.top) == 0 {
		return 0
	}
	return r.top[len(r.top)-1]
}

// SetFocus focuses h. Disabled windows cannot take focus.
func (r *Registry) SetFocus(h value.Pointer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[h]
	if !ok {
		return &HandleError{Handle: h}
	}
	if !w.Enabled {
		return fmt.Errorf("window %d is disabled", uint64(h))
	}
	r.focus = h
	return nil
}

// Focus returns the focused window, or 0.
func (r *Registry) Focus() value.Pointer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.focus
}

func (r *Registry) IsEnabled(h value.Pointer) (bool, error) {
	w, err := r.get(h)
	return w.Enabled, err
}

func (r *Registry) IsMinimized(h value.Pointer) (bool, error) {
	w, err := r.get(h)
	return w.Minimized, err
}

func (r *Registry) IsVisible(h value.Pointer) (bool, error) {
	w, err := r.get(h)
	return w.Visible, err
}

// IsWindow reports whether h is registered.
func (r *Registry) IsWindow(h value.Pointer) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.windows[h]
	return ok
}

// get returns a copy of the window for h.
func (r *Registry) get(h value.Pointer) (Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.windows[h]
	if !ok {
		return Window{}, &HandleError{Handle: h}
	}
	return *w, nil
}

func (r *Registry) update(h value.Pointer, fn func(*Window)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[h]
	if !ok {
		return &HandleError{Handle: h}
	}
	fn(w)
	return nil
}

func (r *Registry) sortedLocked() []value.Pointer {
	out := make([]value.Pointer, 0, len(r.windows))
	for h := range r.windows {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func removeHandle(hs []value.Pointer, h value.Pointer) []value.Pointer {
	out := hs[:0]
	for _, x := range hs {
		if x != h {
			out = append(out, x)
		}
	}
	return out
}
