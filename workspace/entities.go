// Package workspace holds the canonical, single-writer state of repos,
// worktrees, panes, tabs, and arrangements, and every structural mutation
// that can be made to them. It is the direct generalization of the
// teacher's texel.Desktop/texel.Workspace/texel.Tree trio: where the teacher
// keeps one tiling tree per on-screen workspace and mutates it in place,
// WorkspaceStore keeps a pool of panes independent of any tab (so panes can
// be backgrounded, extracted, and reattached without losing identity) and
// delegates the pure split-tree math to the layout package.
package workspace

import (
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
)

// Availability describes whether a Repo's working copy is still reachable
// on disk.
type Availability int

const (
	Available Availability = iota
	Unavailable
)

// Repo is a discovered git repository and the worktrees under it.
type Repo struct {
	ID           id.ID
	Name         string
	RepoPath     string
	StableKey    string
	Worktrees    []id.ID
	Availability Availability
}

// Worktree is a single working directory tied to a Repo and branch.
type Worktree struct {
	ID             id.ID
	RepoID         id.ID
	Name           string
	Path           string
	Branch         string
	Status         string
	IsMainWorktree bool
	StableKey      string
}

// Lifetime describes whether a pane's content should survive a restart.
type Lifetime int

const (
	Persistent Lifetime = iota
	Ephemeral
)

// Residency describes whether a pane is live in a layout or parked.
type Residency int

const (
	ResidencyActive Residency = iota
	ResidencyBackgrounded
)

// ContentKind tags the Content sum type.
type ContentKind int

const (
	ContentTerminal ContentKind = iota
	ContentWebview
	ContentCodeViewer
	ContentBridgePanel
	ContentUnsupported
)

// Content is the tagged-variant payload a pane hosts. Only the field
// matching Kind is meaningful; the others are zero. State payloads are
// opaque maps because the concrete renderer/runtime, not the core, defines
// their shape — mirrors the teacher's SnapshotProvider.SnapshotMetadata
// app-type/config pairing (texel/snapshot.go).
type Content struct {
	Kind          ContentKind
	WebviewState  map[string]any
	CodeViewer    map[string]any
	BridgePanel   map[string]any
}

// PaneMetadata is the descriptive, non-structural data a pane carries.
type PaneMetadata struct {
	Title      string
	Facets     map[string]string
	CWD        string
	WorktreeID id.ID
	RepoID     id.ID
}

// Drawer is a secondary split-tree hosted by a parent pane. IsOpen tracks
// whether the drawer is currently shown; toggling it closed hides every
// drawer-child view without tearing any of them down.
type Drawer struct {
	Layout           layout.Layout
	ActivePaneID     id.ID
	MinimizedPaneIDs []id.ID
	IsOpen           bool
}

// Pane is the unit of content. It exists in the store independent of any
// tab or layout, which is what lets extract/background/reattach preserve
// identity (spec.md §3 Pane).
type Pane struct {
	ID            id.ID
	Content       Content
	Provider      string
	Lifetime      Lifetime
	Residency     Residency
	ParentPaneID  id.ID
	IsDrawerChild bool
	Drawer        *Drawer
	Metadata      PaneMetadata
}

// Arrangement is a named alternate layout within a tab, with its own
// minimized set.
type Arrangement struct {
	ID               id.ID
	Name             string
	IsDefault        bool
	Layout           layout.Layout
	MinimizedPaneIDs []id.ID
}

// Tab is a named collection of arrangements sharing a pane pool.
type Tab struct {
	ID                  id.ID
	Arrangements        []*Arrangement
	ActiveArrangementID id.ID
	ActivePaneID        id.ID
	ZoomedPaneID        id.ID
}

// ActiveArrangement returns the tab's currently active arrangement, or nil
// if ActiveArrangementID doesn't match any arrangement (should not happen
// in a well-formed store).
func (t *Tab) ActiveArrangement() *Arrangement {
	for _, a := range t.Arrangements {
		if a.ID == t.ActiveArrangementID {
			return a
		}
	}
	return nil
}

func (t *Tab) arrangement(id id.ID) *Arrangement {
	for _, a := range t.Arrangements {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// ReinsertHint records where in a former parent split a closed pane sat, so
// undo can restore it to the same position.
type ReinsertHint struct {
	Direction layout.SplitDirection
	Position  layout.Position
}

// TabClose is the undo snapshot taken when an entire tab is closed.
type TabClose struct {
	Tab          Tab
	Panes        []Pane
	Arrangements []Arrangement
}

// PaneClose is the undo snapshot taken when a single pane (and its drawer
// children, if any) is closed out of a tab.
type PaneClose struct {
	TabID            id.ID
	Pane             Pane
	DrawerChildPanes []Pane
	AnchorPaneID     id.ID
	ReinsertHint     ReinsertHint
	IsDrawerChild    bool
}
