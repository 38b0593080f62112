package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		name string
		want Side
	}{
		{"top", SideTop},
		{"TopLeft", SideTopLeft},
		{"BOTTOMRIGHT", SideBottomRight},
		{"center", SideCenter},
		{"closest", SideClosest},
		{"closestany", SideClosest},
		{"closestSide", SideClosestSide},
		{"closestcorner", SideClosestCorner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSide(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSide_Invalid(t *testing.T) {
	_, err := ParseSide("middle")
	require.Error(t, err)
	assert.True(t, IsSideError(err))
	assert.Contains(t, err.Error(), "middle")
	assert.Contains(t, err.Error(), "closestcorner")
}

func TestResolve_ClosestAnyPrefersTop(t *testing.T) {
	// center=(5,5), top=(5,0); target (5,1) is 1 from top and 4 from center
	bounds := Rect{X: 0, Y: 0, Width: 10, Height: 10}

	got := SideClosest.Resolve(bounds, Point{5, 1})
	assert.Equal(t, Top, got)
}

func TestResolve_ClosestAnyCenter(t *testing.T) {
	bounds := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.Equal(t, Center, SideClosest.Resolve(bounds, Point{5, 5}))
}

func TestResolve_TieBreakOrder(t *testing.T) {
	// A zero-size box puts every anchor on the same point, so each mode
	// must return its first candidate.
	bounds := Rect{X: 3, Y: 3}
	target := Point{100, 100}

	assert.Equal(t, Center, SideClosest.Resolve(bounds, target))
	assert.Equal(t, Top, SideClosestSide.Resolve(bounds, target))
	assert.Equal(t, TopLeft, SideClosestCorner.Resolve(bounds, target))
}

func TestResolve_TieBetweenLeftAndTop(t *testing.T) {
	// top=(5,0), left=(0,5) are equidistant from (0,0); corner topLeft is
	// excluded for closestside, and top precedes left in the order.
	bounds := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.Equal(t, Top, SideClosestSide.Resolve(bounds, Point{0, 0}))
}

func TestResolve_ClosestSideNeverCenterOrCorner(t *testing.T) {
	bounds := Rect{X: 0, Y: 0, Width: 10, Height: 10}

	assert.Equal(t, Right, SideClosestSide.Resolve(bounds, Point{30, 5}))
	assert.Equal(t, Bottom, SideClosestSide.Resolve(bounds, Point{5, 6}))
	assert.Equal(t, BottomRight, SideClosestCorner.Resolve(bounds, Point{11, 12}))
	assert.Equal(t, TopLeft, SideClosestCorner.Resolve(bounds, Point{5, 4}))
}

func TestResolve_ConcreteSides(t *testing.T) {
	bounds := Rect{Width: 10, Height: 10}
	for s := SideCenter; s <= SideBottomRight; s++ {
		assert.Equal(t, Anchor(s), s.Resolve(bounds, Point{1000, 1000}))
	}
}
