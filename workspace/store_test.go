package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
)

func newTestStore() *Store {
	return New(id.NewAllocator())
}

func TestCreatePaneThenAppendTab(t *testing.T) {
	s := newTestStore()
	p := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	require.True(t, p.ID.Valid())

	tab := s.NewTab(p.ID)
	assert.Len(t, s.Tabs(), 1)
	assert.Equal(t, []id.ID{p.ID}, tab.ActiveArrangement().Layout.Leaves())
}

func TestCloseTabThenUndoPreservesIdentity(t *testing.T) {
	s := newTestStore()
	p := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	tab := s.NewTab(p.ID)
	s.SetActiveTab(tab.ID)

	snap, ok := s.SnapshotForClose(tab.ID)
	require.True(t, ok)
	s.RemoveTab(tab.ID)
	assert.Empty(t, s.Tabs())

	s.RestoreTabClose(snap)
	assert.Len(t, s.Tabs(), 1)
	assert.Equal(t, tab.ID, s.Tabs()[0].ID)
	assert.Equal(t, p.ID, s.Tabs()[0].ActiveArrangement().Layout.Leaves()[0])
}

func TestSplitThenCloseRightThenUndo(t *testing.T) {
	s := newTestStore()
	p1 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	tab := s.NewTab(p1.ID)

	p2 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	require.NoError(t, s.InsertPane(p2.ID, tab.ID, p1.ID, layout.Horizontal, layout.After))

	arr := tab.ActiveArrangement()
	assert.ElementsMatch(t, []id.ID{p1.ID, p2.ID}, arr.Layout.Leaves())

	snap, ok := s.SnapshotForPaneClose(p2.ID, tab.ID)
	require.True(t, ok)
	assert.Equal(t, p1.ID, snap.AnchorPaneID)
	assert.Equal(t, layout.Horizontal, snap.ReinsertHint.Direction)
	assert.Equal(t, layout.After, snap.ReinsertHint.Position)

	arr.Layout, _ = arr.Layout.Remove(p2.ID)
	assert.Equal(t, []id.ID{p1.ID}, arr.Layout.Leaves())

	restored := s.RestorePaneClose(snap)
	require.True(t, restored)
	restoredArr := tab.ActiveArrangement()
	assert.ElementsMatch(t, []id.ID{p1.ID, p2.ID}, restoredArr.Layout.Leaves())
	gotDir, ok := restoredArr.Layout.ParentDirection(p2.ID)
	require.True(t, ok)
	assert.Equal(t, layout.Horizontal, gotDir, "undo-restore must reproduce the original split orientation")
}

func TestInsertPaneRejectsAlreadyPlaced(t *testing.T) {
	s := newTestStore()
	p1 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	tab := s.NewTab(p1.ID)

	err := s.InsertPane(p1.ID, tab.ID, p1.ID, layout.Vertical, layout.After)
	assert.Error(t, err)
}

func TestBreakUpSinglePaneTabIsNoop(t *testing.T) {
	s := newTestStore()
	p1 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	tab := s.NewTab(p1.ID)

	newIDs := s.BreakUpTab(tab.ID)
	assert.Nil(t, newIDs)
	assert.Len(t, s.Tabs(), 1)
}

func TestSwitchArrangementClearsMinimized(t *testing.T) {
	s := newTestStore()
	p1 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	tab := s.NewTab(p1.ID)
	other := s.CreateArrangement(tab.ID, "alt", []id.ID{p1.ID})
	require.NotNil(t, other)

	defaultID := tab.ActiveArrangementID
	require.True(t, s.SwitchArrangement(tab.ID, other.ID))
	s.MinimizePane(tab.ID, p1.ID)
	require.NotEmpty(t, other.MinimizedPaneIDs)
	require.True(t, s.SwitchArrangement(tab.ID, defaultID))
	require.True(t, s.SwitchArrangement(tab.ID, other.ID))
	assert.Empty(t, other.MinimizedPaneIDs)
}

func TestRemoveArrangementRefusesLastOne(t *testing.T) {
	s := newTestStore()
	p1 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	tab := s.NewTab(p1.ID)

	ok := s.RemoveArrangement(tab.ID, tab.ActiveArrangementID)
	assert.False(t, ok)
}

func TestUndoGCElevenCloses(t *testing.T) {
	s := newTestStore()
	var snaps []TabClose
	for i := 0; i < 11; i++ {
		p := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
		tab := s.NewTab(p.ID)
		snap, _ := s.SnapshotForClose(tab.ID)
		s.RemoveTab(tab.ID)
		snaps = append(snaps, snap)
	}
	// A bounded LIFO stack of depth 10 is maintained by the coordinator, not
	// the store; here we only assert the store-level building blocks (each
	// snapshot is independently restorable and GC'ing the oldest cleanly
	// orphans its pane).
	require.Len(t, snaps, 11)
	oldest := snaps[0]
	assert.False(t, s.paneReferenced(oldest.Panes[0].ID))
}

func TestBackgroundThenReactivatePane(t *testing.T) {
	s := newTestStore()
	p1 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	tab := s.NewTab(p1.ID)
	p2 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	require.NoError(t, s.InsertPane(p2.ID, tab.ID, p1.ID, layout.Vertical, layout.After))

	require.True(t, s.BackgroundPane(p2.ID))
	assert.Equal(t, ResidencyBackgrounded, s.Pane(p2.ID).Residency)
	assert.False(t, tab.ActiveArrangement().Layout.Contains(p2.ID))

	require.True(t, s.ReactivatePane(p2.ID, tab.ID, p1.ID, layout.Vertical, layout.After))
	assert.Equal(t, ResidencyActive, s.Pane(p2.ID).Residency)
	assert.True(t, tab.ActiveArrangement().Layout.Contains(p2.ID))
}

func TestPurgeOrphanedPaneRequiresBackgroundedAndUnreferenced(t *testing.T) {
	s := newTestStore()
	p1 := s.CreatePane(Content{Kind: ContentTerminal}, "terminal", Persistent, ResidencyActive, nil)
	assert.False(t, s.PurgeOrphanedPane(p1.ID))

	s.BackgroundPane(p1.ID)
	assert.True(t, s.PurgeOrphanedPane(p1.ID))
	assert.Nil(t, s.Pane(p1.ID))
}
