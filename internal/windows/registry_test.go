package windows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/puppet/internal/value"
)

func TestRegistry_FindAndList(t *testing.T) {
	r := NewRegistry("Notepad", "Calculator")

	h, ok := r.Find("notepad")
	require.True(t, ok)
	assert.Equal(t, firstHandle, h)

	_, ok = r.Find("Paint")
	assert.False(t, ok)

	assert.Equal(t, value.PointerSeq{firstHandle, firstHandle + 1}, r.List())
}

func TestRegistry_Flags(t *testing.T) {
	r := NewRegistry("Notepad")
	h, _ := r.Find("Notepad")

	enabled, err := r.IsEnabled(h)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, r.SetEnabled(h, false))
	enabled, err = r.IsEnabled(h)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, r.SetMinimized(h, true))
	minimized, err := r.IsMinimized(h)
	require.NoError(t, err)
	assert.True(t, minimized)

	require.NoError(t, r.SetVisible(h, false))
	visible, err := r.IsVisible(h)
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestRegistry_UnknownHandle(t *testing.T) {
	r := NewRegistry()
	bogus := value.Pointer(42)

	assert.False(t, r.IsWindow(bogus))

	_, err := r.Title(bogus)
	var he *HandleError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, bogus, he.Handle)

	assert.Error(t, r.SetEnabled(bogus, true))
	assert.Error(t, r.BringToTop(bogus))
	assert.Error(t, r.SetFocus(bogus))
	assert.Error(t, r.Close(bogus))
	_, err = r.IsVisible(bogus)
	assert.Error(t, err)
}

func TestRegistry_FocusAndZOrder(t *testing.T) {
	r := NewRegistry("a", "b", "c")
	a, _ := r.Find("a")
	b, _ := r.Find("b")

	assert.Equal(t, value.Pointer(0), r.Focus())

	require.NoError(t, r.SetFocus(a))
	assert.Equal(t, a, r.Focus())

	require.NoError(t, r.SetEnabled(b, false))
	assert.Error(t, r.SetFocus(b), "disabled windows cannot take focus")

	require.NoError(t, r.BringToTop(a))
	assert.Equal(t, a, r.Topmost())

	require.NoError(t, r.Close(a))
	assert.Equal(t, value.Pointer(0), r.Focus())
	assert.False(t, r.IsWindow(a))
	assert.NotEqual(t, a, r.Topmost())
}

func TestRegistry_HandlesNotReused(t *testing.T) {
	r := NewRegistry("a")
	a, _ := r.Find("a")
	require.NoError(t, r.Close(a))

	b := r.Open("b")
	assert.NotEqual(t, a, b)
}
