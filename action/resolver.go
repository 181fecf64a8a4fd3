package action

import (
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
)

// DropZone names the destination region of a drag-drop gesture.
type DropZone int

const (
	ZoneCenter DropZone = iota
	ZoneLeft
	ZoneRight
	ZoneTop
	ZoneBottom
	ZoneTabBar
)

// DropPayload describes what is being dropped — either an existing pane
// being moved, or a request to create new content.
type DropPayload struct {
	ExistingPaneID id.ID
	NewContentKind string
	NewProvider    string
}

// Resolver is a pure function: (command, state) -> candidate PaneAction, or
// ok=false when the command doesn't apply (spec.md §4.4).
type Resolver struct{}

// NewResolver returns a stateless resolver.
func NewResolver() *Resolver { return &Resolver{} }

// Resolve maps cmd against snapshot to a concrete action.
func (r *Resolver) Resolve(cmd Command, snapshot Snapshot) (PaneAction, bool) {
	tab, ok := snapshot.activeTab()
	if !ok {
		return PaneAction{}, false
	}

	switch cmd {
	case CmdCloseTab:
		return PaneAction{Kind: CloseTab, TabID: tab.ID}, true

	case CmdBreakUpTab:
		return PaneAction{Kind: BreakUpTab, TabID: tab.ID}, true

	case CmdCloseActivePane:
		if !tab.ActivePaneID.Valid() {
			return PaneAction{}, false
		}
		return PaneAction{Kind: ClosePane, TabID: tab.ID, PaneID: tab.ActivePaneID}, true

	case CmdNextTab:
		idx := indexOfTab(snapshot, tab.ID)
		if idx < 0 || len(snapshot.Tabs) < 2 {
			return PaneAction{}, false
		}
		next := snapshot.Tabs[(idx+1)%len(snapshot.Tabs)]
		return PaneAction{Kind: SelectTab, TabID: next.ID}, true

	case CmdPrevTab:
		idx := indexOfTab(snapshot, tab.ID)
		if idx < 0 || len(snapshot.Tabs) < 2 {
			return PaneAction{}, false
		}
		prev := snapshot.Tabs[(idx-1+len(snapshot.Tabs))%len(snapshot.Tabs)]
		return PaneAction{Kind: SelectTab, TabID: prev.ID}, true

	case CmdFocusPaneLeft, CmdFocusPaneRight, CmdFocusPaneUp, CmdFocusPaneDown:
		return r.resolveFocus(cmd, tab)

	case CmdSplitRight:
		if !tab.ActivePaneID.Valid() {
			return PaneAction{}, false
		}
		return PaneAction{
			Kind: InsertPane, TabID: tab.ID, TargetPane: tab.ActivePaneID,
			Direction: layout.Horizontal, Position: layout.After,
			Source: PaneSource{NewContentKind: "terminal"},
		}, true

	case CmdSplitDown:
		if !tab.ActivePaneID.Valid() {
			return PaneAction{}, false
		}
		return PaneAction{
			Kind: InsertPane, TabID: tab.ID, TargetPane: tab.ActivePaneID,
			Direction: layout.Vertical, Position: layout.After,
			Source: PaneSource{NewContentKind: "terminal"},
		}, true

	case CmdToggleZoom:
		if !tab.ActivePaneID.Valid() {
			return PaneAction{}, false
		}
		return PaneAction{Kind: ToggleSplitZoom, TabID: tab.ID, PaneID: tab.ActivePaneID}, true

	case CmdEqualize:
		return PaneAction{Kind: EqualizePanes, TabID: tab.ID}, true
	}

	return PaneAction{}, false
}

func (r *Resolver) resolveFocus(cmd Command, tab TabView) (PaneAction, bool) {
	if !tab.ActivePaneID.Valid() {
		return PaneAction{}, false
	}
	var dir layout.Direction
	switch cmd {
	case CmdFocusPaneLeft:
		dir = layout.DirLeft
	case CmdFocusPaneRight:
		dir = layout.DirRight
	case CmdFocusPaneUp:
		dir = layout.DirUp
	case CmdFocusPaneDown:
		dir = layout.DirDown
	}
	neighbor, ok := tab.Layout.FocusNeighbor(tab.ActivePaneID, dir)
	if !ok {
		return PaneAction{}, false
	}
	return PaneAction{Kind: FocusPane, TabID: tab.ID, PaneID: neighbor, FocusDir: dir}, true
}

// ResolveDrop maps a drag-drop payload to an InsertPane/MoveTab action.
func (r *Resolver) ResolveDrop(payload DropPayload, destPaneID, destTabID id.ID, zone DropZone, snapshot Snapshot) (PaneAction, bool) {
	if zone == ZoneTabBar {
		if payload.ExistingPaneID.Valid() {
			return PaneAction{}, false
		}
		return PaneAction{Kind: MoveTab, TabID: destTabID}, true
	}

	dir, pos := zoneToSplit(zone)
	src := PaneSource{ExistingPaneID: payload.ExistingPaneID, NewContentKind: payload.NewContentKind, NewProvider: payload.NewProvider}
	return PaneAction{
		Kind: InsertPane, TabID: destTabID, TargetPane: destPaneID,
		Direction: dir, Position: pos, Source: src,
	}, true
}

func zoneToSplit(zone DropZone) (layout.SplitDirection, layout.Position) {
	switch zone {
	case ZoneLeft:
		return layout.Horizontal, layout.Before
	case ZoneRight:
		return layout.Horizontal, layout.After
	case ZoneTop:
		return layout.Vertical, layout.Before
	case ZoneBottom:
		return layout.Vertical, layout.After
	default:
		return layout.Horizontal, layout.After
	}
}
