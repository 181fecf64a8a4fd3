package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
	"github.com/tabworks/panecore/view"
	"github.com/tabworks/panecore/workspace"
)

// TestRestoreAllViewsBuildsViewsAndSurfacesForEveryLeaf populates a store
// directly (as boot loading a persisted workspace would) with two tabs, one
// of them active and one with a split, and checks every leaf pane ends up
// with a registered view, with terminal leaves also getting an attached
// surface (spec.md §4.8's closing restoration paragraph).
func TestRestoreAllViewsBuildsViewsAndSurfacesForEveryLeaf(t *testing.T) {
	co, _ := newTestCoordinator(t)

	p1 := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	tabA := co.store.NewTab(p1.ID)

	p2 := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	p3 := co.store.CreatePane(workspace.Content{Kind: workspace.ContentWebview}, "webview", workspace.Persistent, workspace.ResidencyActive, nil)
	tabB := co.store.NewTab(p2.ID)
	require.NoError(t, co.store.InsertPane(p3.ID, tabB.ID, p2.ID, layout.Vertical, layout.After))

	co.store.SetActiveTab(tabB.ID)

	yields := 0
	co.RestoreAllViews(func() { yields++ })

	assert.True(t, co.views.Contains(p1.ID))
	assert.True(t, co.views.Contains(p2.ID))
	assert.True(t, co.views.Contains(p3.ID))

	v1 := co.views.View(p1.ID)
	require.NotNil(t, v1)
	assert.Equal(t, view.KindTerminal, v1.Kind)
	assert.True(t, v1.TerminalSurfaceID.Valid())

	v3 := co.views.View(p3.ID)
	require.NotNil(t, v3)
	assert.Equal(t, view.KindWebview, v3.Kind)
	assert.False(t, v3.TerminalSurfaceID.Valid())

	assert.Equal(t, 1, yields, "yield fires every 2 restored panes, 3 panes restored")

	_ = tabA
}

// TestRestoreAllViewsSkipsPanesAlreadyRegistered checks the idempotency
// guard: a pane whose view was already registered (e.g. the coordinator ran
// RestoreAllViews twice, or a view was created ahead of boot) is left alone
// rather than rebuilt.
func TestRestoreAllViewsSkipsPanesAlreadyRegistered(t *testing.T) {
	co, _ := newTestCoordinator(t)

	p := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	co.store.NewTab(p.ID)

	co.views.Register(view.PaneView{PaneID: p.ID, Kind: view.KindTerminal, Handle: "pre-existing"})

	co.RestoreAllViews(nil)

	v := co.views.View(p.ID)
	require.NotNil(t, v)
	assert.Equal(t, "pre-existing", v.Handle)
	assert.False(t, v.TerminalSurfaceID.Valid())
}

// TestRestoreAllViewsOrdersActiveTabFirst checks the active tab's panes are
// restored before any other tab's, even when it was created later.
func TestRestoreAllViewsOrdersActiveTabFirst(t *testing.T) {
	co, _ := newTestCoordinator(t)

	p1 := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	co.store.NewTab(p1.ID)

	p2 := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	tabB := co.store.NewTab(p2.ID)
	co.store.SetActiveTab(tabB.ID)

	var order []id.ID
	base := co.viewFactory
	co.viewFactory = func(content workspace.Content, paneID id.ID) (view.PaneView, error) {
		order = append(order, paneID)
		return base(content, paneID)
	}

	co.RestoreAllViews(nil)

	assert.True(t, co.views.Contains(p2.ID))
	assert.True(t, co.views.Contains(p1.ID))
	assert.Equal(t, []id.ID{p2.ID, p1.ID}, order)
}
