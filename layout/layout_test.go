package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/id"
)

func TestInsertCreatesSplit(t *testing.T) {
	a, b := id.ID("A"), id.ID("B")
	l := NewSingleton(a)
	l2 := l.Insert(b, a, Horizontal, After, id.ID("s1"))

	require.True(t, l2.Contains(a))
	require.True(t, l2.Contains(b))
	assert.False(t, l.Contains(b), "original layout must be untouched")
	assert.ElementsMatch(t, []id.ID{a, b}, l2.Leaves())
	assert.Equal(t, 0.5, l2.Root.Ratio)
}

func TestInsertUnknownTargetNoop(t *testing.T) {
	a := id.ID("A")
	l := NewSingleton(a)
	l2 := l.Insert(id.ID("B"), id.ID("missing"), Horizontal, After, id.ID("s1"))
	assert.Equal(t, l, l2)
}

func TestRemoveCollapsesSplit(t *testing.T) {
	a, b := id.ID("A"), id.ID("B")
	l := NewSingleton(a).Insert(b, a, Vertical, After, id.ID("s1"))

	l2, empty := l.Remove(b)
	assert.False(t, empty)
	assert.True(t, l2.Contains(a))
	assert.False(t, l2.Contains(b))
	assert.True(t, l2.Root.isLeaf())
}

func TestRemoveLastPaneIsEmpty(t *testing.T) {
	a := id.ID("A")
	l := NewSingleton(a)
	l2, empty := l.Remove(a)
	assert.True(t, empty)
	assert.True(t, l2.IsEmpty())
}

func TestResizeClamps(t *testing.T) {
	a, b := id.ID("A"), id.ID("B")
	split := id.ID("s1")
	l := NewSingleton(a).Insert(b, a, Vertical, After, split)

	l2 := l.Resize(split, 5.0)
	assert.Equal(t, 0.95, l2.Root.Ratio)

	l3 := l.Resize(split, -5.0)
	assert.Equal(t, 0.05, l3.Root.Ratio)
}

func TestEqualizeIsIdempotent(t *testing.T) {
	a, b, c := id.ID("A"), id.ID("B"), id.ID("C")
	l := NewSingleton(a).
		Insert(b, a, Vertical, After, id.ID("s1")).
		Insert(c, b, Horizontal, After, id.ID("s2"))

	once := l.Equalize()
	twice := once.Equalize()
	assert.Equal(t, once, twice)
}

func TestToggleZoom(t *testing.T) {
	a, b := id.ID("A"), id.ID("B")
	l := NewSingleton(a).Insert(b, a, Vertical, After, id.ID("s1"))

	zoomed := l.ToggleZoom(a)
	assert.Equal(t, []id.ID{a}, zoomed.VisiblePaneIDs())

	unzoomed := zoomed.ToggleZoom(a)
	assert.ElementsMatch(t, []id.ID{a, b}, unzoomed.VisiblePaneIDs())
}

func TestResizeByDeltaMonotoneBounded(t *testing.T) {
	a, b := id.ID("A"), id.ID("B")
	split := id.ID("s1")
	l := NewSingleton(a).Insert(b, a, Horizontal, After, split)

	for i := 0; i < 200; i++ {
		l = l.ResizeByDelta(a, DirRight, 5)
	}
	assert.LessOrEqual(t, l.Root.Ratio, 0.95)
	assert.Greater(t, l.Root.Ratio, 0.9)
}

func TestFocusNeighborRoundTrip(t *testing.T) {
	a, b := id.ID("A"), id.ID("B")
	l := NewSingleton(a).Insert(b, a, Horizontal, After, id.ID("s1"))

	right, ok := l.FocusNeighbor(a, DirRight)
	require.True(t, ok)
	assert.Equal(t, b, right)

	back, ok := l.FocusNeighbor(right, DirLeft)
	require.True(t, ok)
	assert.Equal(t, a, back)
}

func TestFocusNeighborNoneReturnsFalse(t *testing.T) {
	a := id.ID("A")
	l := NewSingleton(a)
	_, ok := l.FocusNeighbor(a, DirRight)
	assert.False(t, ok)
}
