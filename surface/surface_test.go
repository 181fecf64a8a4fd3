package surface

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/id"
)

func fakeClock(start int64) (func() int64, *int64) {
	cur := start
	return func() int64 { return cur }, &cur
}

func okFactory(cfg Config, meta Metadata) (any, error) { return "handle", nil }

func TestCreateAttachDetachUndoClose(t *testing.T) {
	clock, cur := fakeClock(0)
	p := New(id.NewAllocator(), okFactory, clock, 300)

	paneID := id.ID("pane-1")
	ms, kind, err := p.CreateSurface(Config{}, Metadata{PaneID: paneID})
	require.NoError(t, err)
	require.Equal(t, CreateOK, kind)

	handle, ok := p.Attach(ms.ID, paneID)
	require.True(t, ok)
	assert.Equal(t, "handle", handle)

	p.Detach(ms.ID, Close)
	assert.Equal(t, 1, p.UndoStackDepth())

	*cur = 10
	popped, ok := p.UndoClose()
	require.True(t, ok)
	assert.Equal(t, ms.ID, popped.ID)
	assert.Equal(t, 0, p.UndoStackDepth())
}

func TestUndoCloseDropsExpiredEntries(t *testing.T) {
	clock, cur := fakeClock(0)
	p := New(id.NewAllocator(), okFactory, clock, 300)

	ms, _, _ := p.CreateSurface(Config{}, Metadata{PaneID: id.ID("p1")})
	p.Detach(ms.ID, Close)

	*cur = 1000 // far past the 300s TTL
	_, ok := p.UndoClose()
	assert.False(t, ok)
}

func TestRequeueUndoPutsSurfaceBackOnTop(t *testing.T) {
	clock, _ := fakeClock(0)
	p := New(id.NewAllocator(), okFactory, clock, 300)

	ms, _, _ := p.CreateSurface(Config{}, Metadata{PaneID: id.ID("p1")})
	p.Detach(ms.ID, Close)

	popped, ok := p.UndoClose()
	require.True(t, ok)
	p.RequeueUndo(popped)

	again, ok := p.UndoClose()
	require.True(t, ok)
	assert.Equal(t, ms.ID, again.ID)
}

func TestCreateSurfaceFailureLeavesNoTrackedSurface(t *testing.T) {
	clock, _ := fakeClock(0)
	factory := func(cfg Config, meta Metadata) (any, error) { return nil, errors.New("boom") }
	p := New(id.NewAllocator(), factory, clock, 300)

	_, kind, err := p.CreateSurface(Config{}, Metadata{PaneID: id.ID("p1")})
	assert.Error(t, err)
	assert.Equal(t, CreateFailed, kind)
	assert.Equal(t, 0, p.UndoStackDepth())
}

func TestSyncFocusIsExclusive(t *testing.T) {
	clock, _ := fakeClock(0)
	p := New(id.NewAllocator(), okFactory, clock, 300)

	a, _, _ := p.CreateSurface(Config{}, Metadata{PaneID: id.ID("p1")})
	b, _, _ := p.CreateSurface(Config{}, Metadata{PaneID: id.ID("p2")})

	p.SyncFocus(a.ID)
	assert.Equal(t, a.ID, p.FocusedSurfaceID())
	p.SyncFocus(b.ID)
	assert.Equal(t, b.ID, p.FocusedSurfaceID())
}
