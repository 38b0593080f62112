package stage

import (
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/roach88/puppet/internal/motion"
)

// Terminal is a Virtual actor that is also drawn on a tcell screen.
//
// Geometry stays in float units; drawing divides by the cell size and
// rounds, so a move of less than half a cell does not change the picture.
type Terminal struct {
	*Virtual

	mu     sync.Mutex
	screen tcell.Screen
	cellW  float64
	cellH  float64

	body   tcell.Style
	label  tcell.Style
	bubble tcell.Style
	notice tcell.Style
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithCellSize sets how many units one terminal cell covers. Terminal cells
// are roughly twice as tall as wide, hence the default of 1x2.
func WithCellSize(w, h float64) TerminalOption {
	return func(t *Terminal) {
		if w > 0 {
			t.cellW = w
		}
		if h > 0 {
			t.cellH = h
		}
	}
}

// NewTerminal draws an actor with the given starting bounds on screen.
// screen must already be initialized; Close finalizes it.
func NewTerminal(screen tcell.Screen, bounds motion.Rect, name string, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		screen: screen,
		cellW:  1,
		cellH:  2,
		body:   tcell.StyleDefault.Foreground(tcell.ColorGreen),
		label:  tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen).Bold(true),
		bubble: tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite),
		notice: tcell.StyleDefault.Foreground(tcell.ColorYellow).Reverse(true),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Virtual = NewVirtual(bounds, WithName(name), withChangeHook(func(Snapshot) { t.draw() }))
	t.draw()
	return t
}

// Clear wipes the speech bubble and notification line.
func (t *Terminal) Clear() error {
	t.Virtual.ClearText()
	return nil
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

// CellRect returns the cell rectangle the actor occupies for bounds.
func (t *Terminal) CellRect(b motion.Rect) (x, y, w, h int) {
	x = int(math.Round(b.X / t.cellW))
	y = int(math.Round(b.Y / t.cellH))
	w = max(1, int(math.Round(b.Width/t.cellW)))
	h = max(1, int(math.Round(b.Height/t.cellH)))
	return x, y, w, h
}

// draw repaints the whole screen from the latest snapshot. Reading the
// snapshot under t.mu keeps concurrent changes from painting stale state.
func (t *Terminal) draw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.Virtual.Snapshot()
	t.screen.Clear()

	if snap.Visible {
		x0, y0, w, h := t.CellRect(snap.Bounds)
		for y := y0; y < y0+h; y++ {
			for x := x0; x < x0+w; x++ {
				t.screen.SetContent(x, y, '█', nil, t.body)
			}
		}
		t.text(x0, y0+h/2, snap.Name, w, t.label)

		if snap.Speech != "" {
			t.text(x0, y0-1, snap.Speech, -1, t.bubble)
		}
	}

	if snap.Notice != "" {
		_, rows := t.screen.Size()
		t.text(0, rows-1, snap.Notice, -1, t.notice)
	}

	t.screen.Show()
}

// text writes s starting at (x, y), truncated to limit cells when limit >= 0.
func (t *Terminal) text(x, y int, s string, limit int, style tcell.Style) {
	i := 0
	for _, r := range s {
		if limit >= 0 && i >= limit {
			return
		}
		t.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}
