// Package action defines the closed PaneAction sum type and the pure
// resolver/validator pair described in spec.md §4.4. Neither type touches
// the store directly — ActionResolver maps a command plus a state snapshot
// to a candidate action; ActionValidator decides whether executing it would
// violate an invariant.
package action

import (
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
)

// Kind enumerates every PaneAction variant named in spec.md §4.4.
type Kind int

const (
	SelectTab Kind = iota
	CloseTab
	BreakUpTab
	ClosePane
	ExtractPaneToTab
	FocusPane
	InsertPane
	ResizePane
	EqualizePanes
	ToggleSplitZoom
	MoveTab
	MinimizePane
	ExpandPane
	ResizePaneByDelta
	MergeTab
	CreateArrangement
	RemoveArrangement
	SwitchArrangement
	RenameArrangement
	BackgroundPane
	ReactivatePane
	PurgeOrphanedPane
	AddDrawerPane
	RemoveDrawerPane
	ToggleDrawer
	SetActiveDrawerPane
	ResizeDrawerPane
	EqualizeDrawerPanes
	MinimizeDrawerPane
	ExpandDrawerPane
	InsertDrawerPane
	MoveDrawerPane
	ExpireUndoEntry
	Repair
)

// PaneSource describes where InsertPane's new leaf comes from.
type PaneSource struct {
	// ExistingPaneID is set when moving an already-pooled pane (e.g. extract
	// + reinsert); NewContentKind is set when a fresh pane should be created.
	ExistingPaneID id.ID
	NewContentKind string
	NewProvider    string
}

// PaneAction is the single closed sum type covering every structural change
// the coordinator can execute. Only the fields relevant to Kind are set; the
// rest are zero.
type PaneAction struct {
	Kind Kind

	TabID       id.ID
	FromTab     id.ID
	TargetTabID id.ID
	PaneID      id.ID
	TargetPane  id.ID
	ArrangementID id.ID
	ToArrangementID id.ID

	Direction layout.SplitDirection
	Position  layout.Position
	FocusDir  layout.Direction

	Source PaneSource

	Ratio float64
	DeltaAmount float64

	ToIndex int
	Delta   int

	Name string

	RepairKind string
}

// Command is a resolver input command name, matching spec.md §4.4's list
// (closeTab, nextTab, focusPaneLeft, splitRight, ...).
type Command string

const (
	CmdCloseTab        Command = "closeTab"
	CmdNextTab         Command = "nextTab"
	CmdPrevTab         Command = "prevTab"
	CmdFocusPaneLeft   Command = "focusPaneLeft"
	CmdFocusPaneRight  Command = "focusPaneRight"
	CmdFocusPaneUp     Command = "focusPaneUp"
	CmdFocusPaneDown   Command = "focusPaneDown"
	CmdSplitRight      Command = "splitRight"
	CmdSplitDown       Command = "splitDown"
	CmdToggleZoom      Command = "toggleZoom"
	CmdEqualize        Command = "equalize"
	CmdBreakUpTab      Command = "breakUpTab"
	CmdCloseActivePane Command = "closeActivePane"
)

// Snapshot is the minimal read-only state the resolver and validator need;
// it is produced by the coordinator from the live workspace.Store, never a
// back-reference to the store itself (spec.md §9's one-direction-ownership
// redesign note).
type Snapshot struct {
	Tabs                  []TabView
	ActiveTabID           id.ID
	IsManagementModeActive bool
}

// TabView is the read-only projection of a workspace.Tab the resolver needs.
type TabView struct {
	ID                  id.ID
	ActiveArrangementID id.ID
	ActivePaneID        id.ID
	ZoomedPaneID        id.ID
	Layout              layout.Layout
	ArrangementIDs      []id.ID
}

func (s Snapshot) activeTab() (TabView, bool) {
	for _, t := range s.Tabs {
		if t.ID == s.ActiveTabID {
			return t, true
		}
	}
	return TabView{}, false
}

func indexOfTab(s Snapshot, tabID id.ID) int {
	for i, t := range s.Tabs {
		if t.ID == tabID {
			return i
		}
	}
	return -1
}
