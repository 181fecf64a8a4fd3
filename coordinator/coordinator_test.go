package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tabworks/panecore/action"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
	"github.com/tabworks/panecore/runtimereg"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/view"
	"github.com/tabworks/panecore/workspace"
)

func fakeViewFactory(content workspace.Content, paneID id.ID) (view.PaneView, error) {
	kind := view.KindUnsupported
	switch content.Kind {
	case workspace.ContentTerminal:
		kind = view.KindTerminal
	case workspace.ContentWebview:
		kind = view.KindWebview
	case workspace.ContentCodeViewer:
		kind = view.KindCodeViewer
	case workspace.ContentBridgePanel:
		kind = view.KindBridgePanel
	}
	return view.PaneView{PaneID: paneID, Kind: kind, Handle: "fake-handle"}, nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *surface.Policy) {
	t.Helper()
	ids := id.NewAllocator()
	store := workspace.New(ids)
	views := view.New()
	clock := func() int64 { return 0 }
	surfaces := surface.New(ids, func(cfg surface.Config, meta surface.Metadata) (any, error) { return "handle", nil }, clock, 300)
	runtimes := runtimereg.New(ids)
	tracer := noop.NewTracerProvider().Tracer("test")

	co := New(ids, store, views, surfaces, runtimes, tracer, fakeViewFactory, func(p *workspace.Pane) surface.Config { return surface.Config{} })
	return co, surfaces
}

// Scenario 1: open-then-close-then-undo.
func TestOpenCloseUndoPreservesIdentity(t *testing.T) {
	co, _ := newTestCoordinator(t)

	verdict := co.ExecuteAction(context.Background(), action.PaneAction{
		Kind: action.InsertPane, TabID: id.Nil, TargetPane: id.Nil,
		Source: action.PaneSource{NewContentKind: "terminal"},
	})
	// No tab exists yet, so direct InsertPane against a nil tab must fail
	// cleanly; real callers create the tab via a dedicated "open" path. We
	// exercise that path explicitly below instead.
	_ = verdict

	p := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	tab := co.store.NewTab(p.ID)
	co.store.SetActiveTab(tab.ID)
	pv, err := fakeViewFactory(workspace.Content{Kind: workspace.ContentTerminal}, p.ID)
	require.NoError(t, err)
	co.views.Register(pv)

	result := co.ExecuteAction(context.Background(), action.PaneAction{Kind: action.CloseTab, TabID: tab.ID})
	require.True(t, result.Accepted())
	assert.Empty(t, co.store.Tabs())
	assert.Len(t, co.closeUndo, 1)

	result = co.UndoClose()
	require.True(t, result.Accepted())
	require.Len(t, co.store.Tabs(), 1)
	assert.Equal(t, tab.ID, co.store.Tabs()[0].ID)
	assert.Equal(t, p.ID, co.store.Tabs()[0].ActiveArrangement().Layout.Leaves()[0])
}

// Scenario 2: split then close right, then undo.
func TestSplitCloseRightUndo(t *testing.T) {
	co, _ := newTestCoordinator(t)

	p1 := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	tab := co.store.NewTab(p1.ID)
	co.store.SetActiveTab(tab.ID)
	v1, _ := fakeViewFactory(workspace.Content{Kind: workspace.ContentTerminal}, p1.ID)
	co.views.Register(v1)

	insertVerdict := co.ExecuteAction(context.Background(), action.PaneAction{
		Kind: action.InsertPane, TabID: tab.ID, TargetPane: p1.ID,
		Direction: layout.Horizontal, Position: layout.After,
		Source: action.PaneSource{NewContentKind: "terminal"},
	})
	require.True(t, insertVerdict.Accepted())

	leaves := tab.ActiveArrangement().Layout.Leaves()
	require.Len(t, leaves, 2)
	var p2 id.ID
	for _, l := range leaves {
		if l != p1.ID {
			p2 = l
		}
	}

	closeVerdict := co.ExecuteAction(context.Background(), action.PaneAction{Kind: action.ClosePane, TabID: tab.ID, PaneID: p2})
	require.True(t, closeVerdict.Accepted())
	assert.Equal(t, []id.ID{p1.ID}, tab.ActiveArrangement().Layout.Leaves())

	undoVerdict := co.UndoClose()
	require.True(t, undoVerdict.Accepted())
	assert.ElementsMatch(t, []id.ID{p1.ID, p2}, tab.ActiveArrangement().Layout.Leaves())
}

// Scenario 4: an invalid split (a pane targeting itself as both source and
// anchor) is rejected by the validator before the store is ever touched.
func TestInvalidSplitRejectedLeavesStoreUntouched(t *testing.T) {
	co, _ := newTestCoordinator(t)

	p1 := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	tab := co.store.NewTab(p1.ID)
	co.store.SetActiveTab(tab.ID)
	v1, _ := fakeViewFactory(workspace.Content{Kind: workspace.ContentTerminal}, p1.ID)
	co.views.Register(v1)

	verdict := co.ExecuteAction(context.Background(), action.PaneAction{
		Kind: action.InsertPane, TabID: tab.ID, TargetPane: p1.ID,
		Source: action.PaneSource{ExistingPaneID: p1.ID},
	})

	assert.False(t, verdict.Accepted())
	assert.Equal(t, action.PreconditionFailed, verdict.Kind)
	assert.Equal(t, []id.ID{p1.ID}, tab.ActiveArrangement().Layout.Leaves())
}

// Scenario 5: surface-create failure rolls back pane creation entirely.
func TestSurfaceCreateFailureRollsBackPane(t *testing.T) {
	co, surfaces := newTestCoordinator(t)
	surfaces.FailNextCreate()

	tab := co.store.NewTab(id.Nil)
	co.store.SetActiveTab(tab.ID)

	verdict := co.ExecuteAction(context.Background(), action.PaneAction{
		Kind: action.InsertPane, TabID: tab.ID, TargetPane: id.Nil,
		Source: action.PaneSource{NewContentKind: "terminal"},
	})
	assert.False(t, verdict.Accepted())
	assert.Equal(t, action.SurfaceCreateFailed, verdict.Kind)
	assert.Empty(t, tab.ActiveArrangement().Layout.Leaves())
}

// Scenario 6: undo GC caps the stack at 10 entries.
func TestUndoStackCapsAtTen(t *testing.T) {
	co, _ := newTestCoordinator(t)

	for i := 0; i < 11; i++ {
		p := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
		tab := co.store.NewTab(p.ID)
		v, _ := fakeViewFactory(workspace.Content{Kind: workspace.ContentTerminal}, p.ID)
		co.views.Register(v)
		verdict := co.ExecuteAction(context.Background(), action.PaneAction{Kind: action.CloseTab, TabID: tab.ID})
		require.True(t, verdict.Accepted())
	}

	assert.Len(t, co.closeUndo, 10)
}

// Arrangement switch exactness (scenario 3): the new arrangement's leaves
// become the visible layout, and the hidden pane's surface is detached with
// reason hide, so nothing lands on the close-undo stack.
func TestArrangementSwitchShowsSubsetAndClosesNoSurface(t *testing.T) {
	co, _ := newTestCoordinator(t)

	a := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	tab := co.store.NewTab(a.ID)
	co.store.SetActiveTab(tab.ID)
	b := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	require.NoError(t, co.store.InsertPane(b.ID, tab.ID, a.ID, layout.Vertical, layout.After))
	cPane := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	require.NoError(t, co.store.InsertPane(cPane.ID, tab.ID, b.ID, layout.Horizontal, layout.After))

	for _, p := range []id.ID{a.ID, b.ID, cPane.ID} {
		v, _ := fakeViewFactory(workspace.Content{Kind: workspace.ContentTerminal}, p)
		ms, _, _ := co.surfaces.CreateSurface(surface.Config{}, surface.Metadata{PaneID: p})
		v.TerminalSurfaceID = ms.ID
		co.surfaces.Attach(ms.ID, p)
		co.views.Register(v)
	}

	y := co.store.CreateArrangement(tab.ID, "Y", []id.ID{a.ID, b.ID})
	require.NotNil(t, y)

	verdict := co.ExecuteAction(context.Background(), action.PaneAction{Kind: action.SwitchArrangement, TabID: tab.ID, ToArrangementID: y.ID})
	require.True(t, verdict.Accepted())
	assert.ElementsMatch(t, []id.ID{a.ID, b.ID}, tab.ActiveArrangement().Layout.Leaves())
	assert.Equal(t, 0, co.surfaces.UndoStackDepth())
}

func TestToggleDrawerFlipsIsOpenAndKeepsChildSurface(t *testing.T) {
	co, _ := newTestCoordinator(t)

	host := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	tab := co.store.NewTab(host.ID)
	co.store.SetActiveTab(tab.ID)

	child := co.store.CreatePane(workspace.Content{Kind: workspace.ContentTerminal}, "terminal", workspace.Persistent, workspace.ResidencyActive, nil)
	require.True(t, co.store.AddDrawerPane(host.ID, child.ID))
	require.True(t, co.store.Pane(host.ID).Drawer.IsOpen)

	v, _ := fakeViewFactory(workspace.Content{Kind: workspace.ContentTerminal}, child.ID)
	ms, _, err := co.surfaces.CreateSurface(surface.Config{}, surface.Metadata{PaneID: child.ID})
	require.NoError(t, err)
	v.TerminalSurfaceID = ms.ID
	co.surfaces.Attach(ms.ID, child.ID)
	co.views.Register(v)

	verdict := co.ExecuteAction(context.Background(), action.PaneAction{Kind: action.ToggleDrawer, PaneID: host.ID})
	require.True(t, verdict.Accepted())
	assert.False(t, co.store.Pane(host.ID).Drawer.IsOpen)

	verdict = co.ExecuteAction(context.Background(), action.PaneAction{Kind: action.ToggleDrawer, PaneID: host.ID})
	require.True(t, verdict.Accepted())
	assert.True(t, co.store.Pane(host.ID).Drawer.IsOpen)
	assert.True(t, co.views.Contains(child.ID))
	assert.Equal(t, 0, co.surfaces.UndoStackDepth())
}
