package motion

import (
	"strings"
)

// Side selects which anchor a move drives toward the target.
type Side int

const (
	SideCenter Side = iota
	SideTop
	SideLeft
	SideRight
	SideBottom
	SideTopLeft
	SideTopRight
	SideBottomLeft
	SideBottomRight
	SideClosest
	SideClosestSide
	SideClosestCorner
)

// DefaultSide is used when a move names no side.
const DefaultSide = "closest"

var (
	anyCandidates    = []Anchor{Center, Top, Left, Right, Bottom, TopLeft, TopRight, BottomLeft, BottomRight}
	sideCandidates   = []Anchor{Top, Left, Right, Bottom}
	cornerCandidates = []Anchor{TopLeft, TopRight, BottomLeft, BottomRight}
)

var sideNames = map[string]Side{
	"center":        SideCenter,
	"top":           SideTop,
	"left":          SideLeft,
	"right":         SideRight,
	"bottom":        SideBottom,
	"topleft":       SideTopLeft,
	"topright":      SideTopRight,
	"bottomleft":    SideBottomLeft,
	"bottomright":   SideBottomRight,
	"closest":       SideClosest,
	"closestany":    SideClosest,
	"closestside":   SideClosestSide,
	"closestcorner": SideClosestCorner,
}

// SideOptions lists the accepted side names for diagnostics.
const SideOptions = "top, bottom, left, right, center, topLeft, topRight, bottomLeft, bottomRight, closest, closestside, closestcorner"

// ParseSide maps a case-insensitive side name to a Side.
func ParseSide(name string) (Side, error) {
	s, ok := sideNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &SideError{Name: name}
	}
	return s, nil
}

func (s Side) String() string {
	switch s {
	case SideClosest:
		return "closest"
	case SideClosestSide:
		return "closestSide"
	case SideClosestCorner:
		return "closestCorner"
	default:
		return Anchor(s).String()
	}
}

// Resolve picks the concrete anchor for this side given the current bounds
// and the move target.
func (s Side) Resolve(bounds Rect, target Point) Anchor {
	switch s {
	case SideClosest:
		return Closest(bounds, target, anyCandidates)
	case SideClosestSide:
		return Closest(bounds, target, sideCandidates)
	case SideClosestCorner:
		return Closest(bounds, target, cornerCandidates)
	default:
		return Anchor(s)
	}
}

// Closest returns the candidate anchor nearest to target. Ties keep the
// earliest candidate, so the caller's order is the tie-break order.
func Closest(bounds Rect, target Point, candidates []Anchor) Anchor {
	anchors := bounds.Anchors()
	best := candidates[0]
	bestDist := DistanceSquared(anchors.Get(best), target)
	for _, a := range candidates[1:] {
		if d := DistanceSquared(anchors.Get(a), target); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}
