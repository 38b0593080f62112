package motion

import (
	"fmt"
	"math"
)

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// DistanceSquared returns the squared Euclidean distance between a and b.
func DistanceSquared(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Rect is the actor's bounding box: origin at the top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Anchor names one of the nine reference points on a bounding box.
//
// The declaration order is the tie-break order used by closest selection.
type Anchor int

const (
	Center Anchor = iota
	Top
	Left
	Right
	Bottom
	TopLeft
	TopRight
	BottomLeft
	BottomRight
)

var anchorNames = [...]string{
	Center:      "center",
	Top:         "top",
	Left:        "left",
	Right:       "right",
	Bottom:      "bottom",
	TopLeft:     "topLeft",
	TopRight:    "topRight",
	BottomLeft:  "bottomLeft",
	BottomRight: "bottomRight",
}

func (a Anchor) String() string {
	if a < Center || a > BottomRight {
		return fmt.Sprintf("anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// offset returns the anchor position relative to the box origin.
func (a Anchor) offset(w, h float64) Point {
	switch a {
	case Center:
		return Point{w / 2, h / 2}
	case Top:
		return Point{w / 2, 0}
	case Bottom:
		return Point{w / 2, h}
	case Left:
		return Point{0, h / 2}
	case Right:
		return Point{w, h / 2}
	case TopLeft:
		return Point{0, 0}
	case TopRight:
		return Point{w, 0}
	case BottomLeft:
		return Point{0, h}
	case BottomRight:
		return Point{w, h}
	default:
		return Point{math.NaN(), math.NaN()}
	}
}

// Anchor returns the current position of a on r.
func (r Rect) Anchor(a Anchor) Point {
	off := a.offset(r.Width, r.Height)
	return Point{r.X + off.X, r.Y + off.Y}
}

// WithAnchorAt returns r translated so that anchor a sits on p.
func (r Rect) WithAnchorAt(a Anchor, p Point) Rect {
	off := a.offset(r.Width, r.Height)
	r.X = p.X - off.X
	r.Y = p.Y - off.Y
	return r
}

// AnchorSet holds all nine anchors of one bounding box reading.
type AnchorSet [9]Point

// Anchors computes every anchor of r.
func (r Rect) Anchors() AnchorSet {
	var set AnchorSet
	for a := Center; a <= BottomRight; a++ {
		set[a] = r.Anchor(a)
	}
	return set
}

// Get returns the point for a.
func (s AnchorSet) Get(a Anchor) Point {
	return s[a]
}
