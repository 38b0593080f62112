package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/puppet/internal/value"
)

// handleArg resolves the handle argument at position i. A handle is an
// unsigned integer (decimal or 0x hex) or the name of a variable holding a
// pointer.
func (d *Dispatcher) handleArg(l line, i int, usage string) (value.Pointer, Result, bool) {
	args := l.args()
	if len(args) <= i {
		return 0, d.fail(NotEnoughArguments, usage), false
	}
	h, err := d.parseHandle(args[i])
	if err != nil {
		return 0, d.fail(InvalidArgument, err.Error()), false
	}
	if d.windows == nil {
		return 0, d.fail(InvalidHandle, "no window system"), false
	}
	return h, Result{}, true
}

func (d *Dispatcher) parseHandle(tok string) (value.Pointer, error) {
	var (
		n   uint64
		err error
	)
	if hex, ok := strings.CutPrefix(tok, "0x"); ok {
		n, err = strconv.ParseUint(hex, 16, 64)
	} else {
		n, err = strconv.ParseUint(tok, 10, 64)
	}
	if err == nil {
		return value.Pointer(n), nil
	}

	if v, verr := d.vars.Get(tok); verr == nil {
		if p, ok := v.(value.Pointer); ok {
			return p, nil
		}
		return 0, fmt.Errorf("variable %q holds a %s, not a handle", tok, v.Kind())
	}
	return 0, fmt.Errorf("%q is not a window handle", tok)
}

func (d *Dispatcher) getWindow(_ context.Context, l line) Result {
	title := l.rawTail(1)
	if title == "" {
		return d.fail(NotEnoughArguments, "getwindow <title>")
	}
	if d.windows == nil {
		return d.fail(InvalidHandle, "no window system")
	}
	h, found := d.windows.Find(title)
	if !found {
		return d.fail(InvalidHandle, fmt.Sprintf("no window titled %q", title))
	}
	return success(h)
}

func (d *Dispatcher) getWindows(context.Context, line) Result {
	if d.windows == nil {
		return success(value.PointerSeq{})
	}
	return success(d.windows.List())
}

func (d *Dispatcher) getWindowTitle(_ context.Context, l line) Result {
	h, r, good := d.handleArg(l, 0, "getwindowtitle <handle>")
	if !good {
		return r
	}
	title, err := d.windows.Title(h)
	if err != nil {
		return d.fail(InvalidHandle, err.Error())
	}
	return success(value.String(title))
}

func (d *Dispatcher) enable(_ context.Context, l line) Result {
	return d.setEnabled(l, true, "enable <handle>")
}

func (d *Dispatcher) disable(_ context.Context, l line) Result {
	return d.setEnabled(l, false, "disable <handle>")
}

func (d *Dispatcher) setEnabled(l line, enabled bool, usage string) Result {
	h, r, good := d.handleArg(l, 0, usage)
	if !good {
		return r
	}
	if err := d.windows.SetEnabled(h, enabled); err != nil {
		return d.fail(InvalidHandle, err.Error())
	}
	return success(nil)
}

func (d *Dispatcher) bringToTop(_ context.Context, l line) Result {
	h, r, good := d.handleArg(l, 0, "bringtotop <handle>")
	if !good {
		return r
	}
	if err := d.windows.BringToTop(h); err != nil {
		return d.fail(InvalidHandle, err.Error())
	}
	return success(nil)
}

func (d *Dispatcher) setFocus(_ context.Context, l line) Result {
	h, r, good := d.handleArg(l, 0, "setfocus <handle>")
	if !good {
		return r
	}
	if err := d.windows.SetFocus(h); err != nil {
		return d.fail(InvalidHandle, err.Error())
	}
	return success(nil)
}

// getFocus returns the focused window. No focus is a null pointer with code
// Null rather than an error.
func (d *Dispatcher) getFocus(context.Context, line) Result {
	var h value.Pointer
	if d.windows != nil {
		h = d.windows.Focus()
	}
	if h.IsNull() {
		return Result{Code: Null, Value: h}
	}
	return success(h)
}

func (d *Dispatcher) isEnabled(_ context.Context, l line) Result {
	return d.query(l, "isenabled <handle>", func(h value.Pointer) (bool, error) {
		return d.windows.IsEnabled(h)
	})
}

func (d *Dispatcher) isMinimized(_ context.Context, l line) Result {
	return d.query(l, "isminimized <handle>", func(h value.Pointer) (bool, error) {
		return d.windows.IsMinimized(h)
	})
}

func (d *Dispatcher) isVisible(_ context.Context, l line) Result {
	return d.query(l, "isvisible <handle>", func(h value.Pointer) (bool, error) {
		return d.windows.IsVisible(h)
	})
}

func (d *Dispatcher) query(l line, usage string, q func(value.Pointer) (bool, error)) Result {
	h, r, good := d.handleArg(l, 0, usage)
	if !good {
		return r
	}
	b, err := q(h)
	if err != nil {
		return d.fail(InvalidHandle, err.Error())
	}
	return success(value.Bool(b))
}

// isWindow answers false for unknown handles instead of failing.
func (d *Dispatcher) isWindow(_ context.Context, l line) Result {
	args := l.args()
	if len(args) < 1 {
		return d.fail(NotEnoughArguments, "iswindow <handle>")
	}
	h, err := d.parseHandle(args[0])
	if err != nil {
		return d.fail(InvalidArgument, err.Error())
	}
	if d.windows == nil {
		return success(value.Bool(false))
	}
	return success(value.Bool(d.windows.IsWindow(h)))
}
