package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect_Anchors(t *testing.T) {
	r := Rect{X: 100, Y: 50, Width: 20, Height: 10}

	tests := []struct {
		anchor Anchor
		want   Point
	}{
		{Center, Point{110, 55}},
		{Top, Point{110, 50}},
		{Bottom, Point{110, 60}},
		{Left, Point{100, 55}},
		{Right, Point{120, 55}},
		{TopLeft, Point{100, 50}},
		{TopRight, Point{120, 50}},
		{BottomLeft, Point{100, 60}},
		{BottomRight, Point{120, 60}},
	}

	set := r.Anchors()
	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, r.Anchor(tt.anchor))
			assert.Equal(t, tt.want, set.Get(tt.anchor))
		})
	}
}

func TestRect_WithAnchorAt(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 8, Height: 4}

	for a := Center; a <= BottomRight; a++ {
		moved := r.WithAnchorAt(a, Point{30, 40})
		assert.Equal(t, Point{30, 40}, moved.Anchor(a), a.String())
		assert.Equal(t, r.Width, moved.Width)
		assert.Equal(t, r.Height, moved.Height)
	}
}

func TestDistanceSquared(t *testing.T) {
	assert.Equal(t, 25.0, DistanceSquared(Point{0, 0}, Point{3, 4}))
	assert.Equal(t, 0.0, DistanceSquared(Point{1, 1}, Point{1, 1}))
}

func TestAnchor_String(t *testing.T) {
	assert.Equal(t, "topLeft", TopLeft.String())
	assert.Equal(t, "anchor(42)", Anchor(42).String())
}
