// Package coordinator implements PaneCoordinator (spec.md §4.6), the
// single-threaded orchestrator that executes PaneActions and keeps the
// workspace store, view registry, and surface policy in agreement.
package coordinator

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tabworks/panecore/action"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
	"github.com/tabworks/panecore/runtimereg"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/view"
	"github.com/tabworks/panecore/workspace"
)

// ViewFactory creates a live view for newly placed pane content. Returning
// an error means the view could not be created; the coordinator rolls the
// store mutation back (spec.md §4.6 step 3's non-negotiable atomicity).
type ViewFactory func(content workspace.Content, paneID id.ID) (view.PaneView, error)

// SurfaceConfigFor derives a surface.Config from a pane's content/metadata,
// for content kinds that need a backing surface (Terminal).
type SurfaceConfigFor func(p *workspace.Pane) surface.Config

const undoStackCapacity = 10

type undoKind int

const (
	undoTab undoKind = iota
	undoPane
)

type undoEntry struct {
	kind  undoKind
	tab   workspace.TabClose
	pane  workspace.PaneClose
}

// Coordinator is the PaneCoordinator. It owns references to every
// collaborator; nothing holds a back-reference to it (spec.md §9).
type Coordinator struct {
	ids       *id.Allocator
	store     *workspace.Store
	views     *view.Registry
	surfaces  *surface.Policy
	runtimes  *runtimereg.Registry
	resolver  *action.Resolver
	validator *action.Validator
	tracer    trace.Tracer

	viewFactory   ViewFactory
	surfaceConfig SurfaceConfigFor

	closeUndo []undoEntry
}

// New wires a Coordinator from its collaborators.
func New(ids *id.Allocator, store *workspace.Store, views *view.Registry, surfaces *surface.Policy, runtimes *runtimereg.Registry, tracer trace.Tracer, viewFactory ViewFactory, surfaceConfig SurfaceConfigFor) *Coordinator {
	return &Coordinator{
		ids: ids, store: store, views: views, surfaces: surfaces, runtimes: runtimes,
		resolver: action.NewResolver(), validator: action.NewValidator(), tracer: tracer,
		viewFactory: viewFactory, surfaceConfig: surfaceConfig,
	}
}

// snapshot projects the live store into the read-only view the resolver and
// validator operate on.
func (c *Coordinator) snapshot() action.Snapshot {
	tabs := c.store.Tabs()
	out := action.Snapshot{ActiveTabID: c.store.ActiveTabID(), Tabs: make([]action.TabView, 0, len(tabs))}
	for _, t := range tabs {
		arr := t.ActiveArrangement()
		tv := action.TabView{ID: t.ID, ActiveArrangementID: t.ActiveArrangementID, ActivePaneID: t.ActivePaneID, ZoomedPaneID: t.ZoomedPaneID}
		if arr != nil {
			tv.Layout = arr.Layout
		} else {
			tv.Layout = layout.New()
		}
		for _, a := range t.Arrangements {
			tv.ArrangementIDs = append(tv.ArrangementIDs, a.ID)
		}
		out.Tabs = append(out.Tabs, tv)
	}
	return out
}

// Execute resolves cmd against the live state, validates it, and applies it
// if accepted. This is the entry point for UI-origin commands.
func (c *Coordinator) Execute(ctx context.Context, cmd action.Command) action.Verdict {
	snap := c.snapshot()
	act, ok := c.resolver.Resolve(cmd, snap)
	if !ok {
		return action.Verdict{Kind: action.InvalidPayload, Reason: "command did not resolve"}
	}
	return c.ExecuteAction(ctx, act)
}

// ExecuteAction validates and applies act directly. Runtime-originated
// actions (spec.md §4.6's re-entry loop) call this, skipping resolution.
func (c *Coordinator) ExecuteAction(ctx context.Context, act action.PaneAction) action.Verdict {
	ctx, span := c.tracer.Start(ctx, "coordinator.execute")
	defer span.End()
	span.SetAttributes(attribute.Int("action.kind", int(act.Kind)))

	verdict := c.validator.Validate(act, c.snapshot())
	if !verdict.Accepted() {
		span.SetAttributes(attribute.String("action.rejected", verdict.Kind.String()))
		return verdict
	}
	return c.apply(ctx, act)
}

func (c *Coordinator) apply(ctx context.Context, act action.PaneAction) action.Verdict {
	switch act.Kind {
	case action.SelectTab:
		c.store.SetActiveTab(act.TabID)
	case action.FocusPane:
		c.store.SetActivePane(act.TabID, act.PaneID)
	case action.CloseTab:
		return c.closeTab(act.TabID)
	case action.ClosePane:
		return c.closePane(act.TabID, act.PaneID)
	case action.BreakUpTab:
		c.store.BreakUpTab(act.TabID)
	case action.InsertPane:
		return c.insertPane(act)
	case action.ExtractPaneToTab:
		c.store.ExtractPane(act.PaneID, act.FromTab)
	case action.ResizePane:
		tab := c.store.Tab(act.TabID)
		if tab != nil {
			if arr := tab.ActiveArrangement(); arr != nil {
				arr.Layout = arr.Layout.Resize(act.ArrangementID, act.Ratio)
			}
		}
	case action.EqualizePanes:
		c.equalize(act.TabID)
	case action.ToggleSplitZoom:
		c.toggleZoom(act.TabID, act.PaneID)
	case action.MoveTab:
		c.store.MoveTab(act.TabID, act.ToIndex)
	case action.MinimizePane:
		c.minimizePane(act.TabID, act.PaneID)
	case action.ExpandPane:
		c.expandPane(act.TabID, act.PaneID)
	case action.ResizePaneByDelta:
		c.resizeByDelta(act.TabID, act.PaneID, act.FocusDir, act.DeltaAmount)
	case action.MergeTab:
		c.store.MergeTab(act.FromTab, act.TargetTabID, act.TargetPane, act.Direction, act.Position)
	case action.CreateArrangement:
		c.store.CreateArrangement(act.TabID, act.Name, []id.ID{act.PaneID})
	case action.RemoveArrangement:
		c.store.RemoveArrangement(act.TabID, act.ArrangementID)
	case action.SwitchArrangement:
		return c.switchArrangement(act.TabID, act.ToArrangementID)
	case action.RenameArrangement:
		c.store.RenameArrangement(act.TabID, act.ArrangementID, act.Name)
	case action.BackgroundPane:
		c.backgroundPane(act.PaneID)
	case action.ReactivatePane:
		c.store.ReactivatePane(act.PaneID, act.TabID, act.TargetPane, act.Direction, act.Position)
	case action.PurgeOrphanedPane:
		c.store.PurgeOrphanedPane(act.PaneID)
	case action.AddDrawerPane, action.InsertDrawerPane, action.RemoveDrawerPane, action.ToggleDrawer,
		action.SetActiveDrawerPane, action.ResizeDrawerPane, action.EqualizeDrawerPanes,
		action.MinimizeDrawerPane, action.ExpandDrawerPane, action.MoveDrawerPane:
		c.applyDrawer(act)
	case action.ExpireUndoEntry:
		// Deliberately absent (spec.md §9 open question): the source's stub
		// expireUndoEntry is never implemented; bounded-stack GC replaces it.
	case action.Repair:
		c.applyRepair(act)
	}
	return action.Verdict{Kind: action.OK}
}

func (c *Coordinator) equalize(tabID id.ID) {
	tab := c.store.Tab(tabID)
	if tab == nil {
		return
	}
	if arr := tab.ActiveArrangement(); arr != nil {
		arr.Layout = arr.Layout.Equalize()
	}
}

func (c *Coordinator) toggleZoom(tabID, paneID id.ID) {
	tab := c.store.Tab(tabID)
	if tab == nil {
		return
	}
	if arr := tab.ActiveArrangement(); arr != nil {
		arr.Layout = arr.Layout.ToggleZoom(paneID)
	}
}

func (c *Coordinator) minimizePane(tabID, paneID id.ID) {
	if !c.store.MinimizePane(tabID, paneID) {
		return
	}
	if v := c.views.View(paneID); v != nil {
		c.surfaces.Detach(v.TerminalSurfaceID, surface.Hide)
	}
}

func (c *Coordinator) expandPane(tabID, paneID id.ID) {
	if !c.store.ExpandPane(tabID, paneID) {
		return
	}
	if v := c.views.View(paneID); v != nil {
		c.surfaces.Attach(v.TerminalSurfaceID, paneID)
	}
}

func (c *Coordinator) resizeByDelta(tabID, paneID id.ID, dir layout.Direction, amount float64) {
	tab := c.store.Tab(tabID)
	if tab == nil {
		return
	}
	if arr := tab.ActiveArrangement(); arr != nil {
		arr.Layout = arr.Layout.ResizeByDelta(paneID, dir, amount)
	}
}

func (c *Coordinator) backgroundPane(paneID id.ID) {
	if v := c.views.View(paneID); v != nil {
		c.surfaces.Detach(v.TerminalSurfaceID, surface.Hide)
	}
	c.store.BackgroundPane(paneID)
}

// insertPane handles both new-content insertion (creates pane + view +
// surface, rolling back on any failure) and existing-pane reinsertion.
func (c *Coordinator) insertPane(act action.PaneAction) action.Verdict {
	if act.Source.ExistingPaneID.Valid() {
		if err := c.store.InsertPane(act.Source.ExistingPaneID, act.TabID, act.TargetPane, act.Direction, act.Position); err != nil {
			log.Printf("coordinator: insertPane existing: %v", err)
			return action.Verdict{Kind: action.InvalidPayload, Reason: err.Error()}
		}
		return action.Verdict{Kind: action.OK}
	}

	content := workspace.Content{Kind: contentKindFor(act.Source.NewContentKind)}
	pane := c.store.CreatePane(content, act.Source.NewProvider, workspace.Persistent, workspace.ResidencyActive, nil)

	if err := c.store.InsertPane(pane.ID, act.TabID, act.TargetPane, act.Direction, act.Position); err != nil {
		log.Printf("coordinator: insertPane placement failed, rolling back pane %s: %v", pane.ID, err)
		c.store.RemoveFailedRestoredPane(pane.ID)
		return action.Verdict{Kind: action.InvalidPayload, Reason: err.Error()}
	}

	v, err := c.viewFactory(content, pane.ID)
	if err != nil {
		log.Printf("coordinator: view creation failed for pane %s, rolling back: %v", pane.ID, err)
		c.store.RemoveFailedRestoredPane(pane.ID)
		return action.Verdict{Kind: action.SurfaceCreateFailed, Reason: err.Error()}
	}

	if content.Kind == workspace.ContentTerminal {
		ms, kind, err := c.surfaces.CreateSurface(c.surfaceConfig(pane), surface.Metadata{PaneID: pane.ID})
		if err != nil || kind != surface.CreateOK {
			log.Printf("coordinator: surface creation failed for pane %s, rolling back: %v", pane.ID, err)
			c.store.RemoveFailedRestoredPane(pane.ID)
			c.views.Unregister(pane.ID)
			return action.Verdict{Kind: action.SurfaceCreateFailed, Reason: "surface create failed"}
		}
		v.TerminalSurfaceID = ms.ID
		c.surfaces.Attach(ms.ID, pane.ID)
	}
	c.views.Register(v)
	return action.Verdict{Kind: action.OK}
}

func contentKindFor(s string) workspace.ContentKind {
	switch s {
	case "terminal":
		return workspace.ContentTerminal
	case "webview":
		return workspace.ContentWebview
	case "codeViewer":
		return workspace.ContentCodeViewer
	case "bridgePanel":
		return workspace.ContentBridgePanel
	default:
		return workspace.ContentUnsupported
	}
}

// OnSurfaceCWDChange implements the coordinator's subscription to
// SurfacePolicy.surfaceCWDChanges (spec.md §4.6's CWD propagation).
func (c *Coordinator) OnSurfaceCWDChange(paneID id.ID, cwd string) {
	c.store.UpdatePaneCWD(paneID, cwd)
}

// HandleRuntimeEvent re-enters the execute loop for runtime-originated
// structural requests, so UI-origin and runtime-origin actions share one
// pipeline (spec.md §4.6).
func (c *Coordinator) HandleRuntimeEvent(ctx context.Context, ev runtimereg.EventEnvelope) {
	act, ok := runtimeEventToAction(ev)
	if !ok {
		return
	}
	c.ExecuteAction(ctx, act)
}

func runtimeEventToAction(ev runtimereg.EventEnvelope) (action.PaneAction, bool) {
	switch ev.Kind {
	case "newSplitRequested":
		return action.PaneAction{
			Kind: action.InsertPane, PaneID: ev.PaneID, TargetPane: ev.PaneID,
			Direction: layout.Vertical, Position: layout.After,
			Source: action.PaneSource{NewContentKind: "terminal"},
		}, true
	case "closeTabRequested":
		return action.PaneAction{Kind: action.CloseTab}, true
	case "resizeSplitRequested":
		return action.PaneAction{Kind: action.ResizePaneByDelta, PaneID: ev.PaneID}, true
	default:
		return action.PaneAction{}, false
	}
}
