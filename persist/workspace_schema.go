package persist

import (
	"fmt"

	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
	"github.com/tabworks/panecore/workspace"
)

const SchemaVersion = 1

// WorkspaceFile is the byte-exact, UTF-8 JSON persisted workspace format
// from spec.md §6.
type WorkspaceFile struct {
	SchemaVersion int                    `json:"schemaVersion"`
	WorkspaceID   string                 `json:"workspaceId"`
	Repos         []RepoJSON             `json:"repos"`
	Tabs          []TabJSON              `json:"tabs"`
	ActiveTabID   *string                `json:"activeTabId"`
	Panes         map[string]PaneJSON    `json:"panes"`
}

type RepoJSON struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	RepoPath  string         `json:"repoPath"`
	StableKey string         `json:"stableKey"`
	Worktrees []WorktreeJSON `json:"worktrees"`
}

type WorktreeJSON struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Path           string `json:"path"`
	Branch         string `json:"branch"`
	Status         string `json:"status"`
	IsMainWorktree bool   `json:"isMainWorktree"`
	StableKey      string `json:"stableKey"`
}

type ArrangementJSON struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	IsDefault        bool       `json:"isDefault"`
	Layout           *LayoutNodeJSON `json:"layout"`
	MinimizedPaneIDs []string   `json:"minimizedPaneIds"`
}

type TabJSON struct {
	ID                  string            `json:"id"`
	Arrangements        []ArrangementJSON `json:"arrangements"`
	ActiveArrangementID string            `json:"activeArrangementId"`
	ActivePaneID        *string           `json:"activePaneId"`
	ZoomedPaneID        *string           `json:"zoomedPaneId"`
}

// LayoutNodeJSON is {"kind":"leaf","paneId":...} or
// {"kind":"split","splitId","direction","ratio","left","right"}.
type LayoutNodeJSON struct {
	Kind      string          `json:"kind"`
	PaneID    string          `json:"paneId,omitempty"`
	SplitID   string          `json:"splitId,omitempty"`
	Direction string          `json:"direction,omitempty"`
	Ratio     float64         `json:"ratio,omitempty"`
	Left      *LayoutNodeJSON `json:"left,omitempty"`
	Right     *LayoutNodeJSON `json:"right,omitempty"`
}

type DrawerJSON struct {
	Layout           *LayoutNodeJSON `json:"layout"`
	ActivePaneID     string          `json:"activePaneId"`
	MinimizedPaneIDs []string        `json:"minimizedPaneIds"`
}

type PaneJSON struct {
	Content       ContentJSON       `json:"content"`
	Provider      string            `json:"provider"`
	Lifetime      string            `json:"lifetime"`
	Residency     string            `json:"residency"`
	Metadata      PaneMetadataJSON  `json:"metadata"`
	Drawer        *DrawerJSON       `json:"drawer,omitempty"`
	ParentPaneID  string            `json:"parentPaneId,omitempty"`
	IsDrawerChild bool              `json:"isDrawerChild"`
}

type ContentJSON struct {
	Kind         string         `json:"kind"`
	WebviewState map[string]any `json:"webviewState,omitempty"`
	CodeViewer   map[string]any `json:"codeViewer,omitempty"`
	BridgePanel  map[string]any `json:"bridgePanel,omitempty"`
}

type PaneMetadataJSON struct {
	Title      string            `json:"title"`
	Facets     map[string]string `json:"facets,omitempty"`
	CWD        string            `json:"cwd,omitempty"`
	WorktreeID string            `json:"worktreeId,omitempty"`
	RepoID     string            `json:"repoId,omitempty"`
}

func directionString(d layout.SplitDirection) string {
	if d == layout.Horizontal {
		return "horizontal"
	}
	return "vertical"
}

func directionFromString(s string) layout.SplitDirection {
	if s == "horizontal" {
		return layout.Horizontal
	}
	return layout.Vertical
}

func layoutNodeToJSON(n *layout.Node) *LayoutNodeJSON {
	if n == nil {
		return nil
	}
	if n.Left == nil && n.Right == nil {
		return &LayoutNodeJSON{Kind: "leaf", PaneID: n.PaneID.String()}
	}
	return &LayoutNodeJSON{
		Kind:      "split",
		SplitID:   n.SplitID.String(),
		Direction: directionString(n.Direction),
		Ratio:     n.Ratio,
		Left:      layoutNodeToJSON(n.Left),
		Right:     layoutNodeToJSON(n.Right),
	}
}

func layoutNodeFromJSON(n *LayoutNodeJSON) *layout.Node {
	if n == nil {
		return nil
	}
	if n.Kind == "leaf" {
		return &layout.Node{PaneID: id.ID(n.PaneID)}
	}
	return &layout.Node{
		SplitID:   id.ID(n.SplitID),
		Direction: directionFromString(n.Direction),
		Ratio:     n.Ratio,
		Left:      layoutNodeFromJSON(n.Left),
		Right:     layoutNodeFromJSON(n.Right),
	}
}

func lifetimeString(l workspace.Lifetime) string {
	if l == workspace.Ephemeral {
		return "ephemeral"
	}
	return "persistent"
}

func lifetimeFromString(s string) workspace.Lifetime {
	if s == "ephemeral" {
		return workspace.Ephemeral
	}
	return workspace.Persistent
}

func residencyString(r workspace.Residency) string {
	if r == workspace.ResidencyBackgrounded {
		return "backgrounded"
	}
	return "active"
}

func residencyFromString(s string) workspace.Residency {
	if s == "backgrounded" {
		return workspace.ResidencyBackgrounded
	}
	return workspace.ResidencyActive
}

func contentKindString(k workspace.ContentKind) string {
	switch k {
	case workspace.ContentWebview:
		return "webview"
	case workspace.ContentCodeViewer:
		return "codeViewer"
	case workspace.ContentBridgePanel:
		return "bridgePanel"
	case workspace.ContentUnsupported:
		return "unsupported"
	default:
		return "terminal"
	}
}

func contentKindFromString(s string) workspace.ContentKind {
	switch s {
	case "webview":
		return workspace.ContentWebview
	case "codeViewer":
		return workspace.ContentCodeViewer
	case "bridgePanel":
		return workspace.ContentBridgePanel
	case "unsupported":
		return workspace.ContentUnsupported
	default:
		return workspace.ContentTerminal
	}
}

func idOrEmpty(v id.ID) string {
	if !v.Valid() {
		return ""
	}
	return v.String()
}

func idPtr(v id.ID) *string {
	if !v.Valid() {
		return nil
	}
	s := v.String()
	return &s
}

func idFromPtr(v *string) id.ID {
	if v == nil {
		return id.Nil
	}
	return id.ID(*v)
}

// EncodeWorkspace converts the live store into the on-disk schema.
func EncodeWorkspace(workspaceID string, s *workspace.Store) WorkspaceFile {
	file := WorkspaceFile{
		SchemaVersion: SchemaVersion,
		WorkspaceID:   workspaceID,
		ActiveTabID:   idPtr(s.ActiveTabID()),
		Panes:         make(map[string]PaneJSON),
	}

	for _, t := range s.Tabs() {
		tj := TabJSON{
			ID:                  t.ID.String(),
			ActiveArrangementID: t.ActiveArrangementID.String(),
			ActivePaneID:        idPtr(t.ActivePaneID),
			ZoomedPaneID:        idPtr(t.ZoomedPaneID),
		}
		for _, a := range t.Arrangements {
			aj := ArrangementJSON{
				ID:        a.ID.String(),
				Name:      a.Name,
				IsDefault: a.IsDefault,
				Layout:    layoutNodeToJSON(a.Layout.Root),
			}
			for _, m := range a.MinimizedPaneIDs {
				aj.MinimizedPaneIDs = append(aj.MinimizedPaneIDs, m.String())
			}
			tj.Arrangements = append(tj.Arrangements, aj)
			for _, p := range a.Layout.Leaves() {
				encodePaneInto(file.Panes, s, p)
			}
		}
		file.Tabs = append(file.Tabs, tj)
	}

	for _, r := range s.AllRepos() {
		rj := RepoJSON{ID: r.ID.String(), Name: r.Name, RepoPath: r.RepoPath, StableKey: r.StableKey}
		for _, wID := range r.Worktrees {
			w := s.Worktree(wID)
			if w == nil {
				continue
			}
			rj.Worktrees = append(rj.Worktrees, WorktreeJSON{
				ID: w.ID.String(), Name: w.Name, Path: w.Path, Branch: w.Branch,
				Status: w.Status, IsMainWorktree: w.IsMainWorktree, StableKey: w.StableKey,
			})
		}
		file.Repos = append(file.Repos, rj)
	}

	return file
}

func encodePaneInto(dst map[string]PaneJSON, s *workspace.Store, paneID id.ID) {
	if _, done := dst[paneID.String()]; done {
		return
	}
	p := s.Pane(paneID)
	if p == nil {
		return
	}
	dst[paneID.String()] = encodePane(p)
	if p.Drawer != nil {
		for _, child := range p.Drawer.Layout.Leaves() {
			encodePaneInto(dst, s, child)
		}
	}
}

func encodePane(p *workspace.Pane) PaneJSON {
	pj := PaneJSON{
		Content: ContentJSON{
			Kind:         contentKindString(p.Content.Kind),
			WebviewState: p.Content.WebviewState,
			CodeViewer:   p.Content.CodeViewer,
			BridgePanel:  p.Content.BridgePanel,
		},
		Provider:  p.Provider,
		Lifetime:  lifetimeString(p.Lifetime),
		Residency: residencyString(p.Residency),
		Metadata: PaneMetadataJSON{
			Title:      p.Metadata.Title,
			Facets:     p.Metadata.Facets,
			CWD:        p.Metadata.CWD,
			WorktreeID: idOrEmpty(p.Metadata.WorktreeID),
			RepoID:     idOrEmpty(p.Metadata.RepoID),
		},
		ParentPaneID:  idOrEmpty(p.ParentPaneID),
		IsDrawerChild: p.IsDrawerChild,
	}
	if p.Drawer != nil {
		dj := &DrawerJSON{
			Layout:       layoutNodeToJSON(p.Drawer.Layout.Root),
			ActivePaneID: idOrEmpty(p.Drawer.ActivePaneID),
		}
		for _, m := range p.Drawer.MinimizedPaneIDs {
			dj.MinimizedPaneIDs = append(dj.MinimizedPaneIDs, m.String())
		}
		pj.Drawer = dj
	}
	return pj
}

// DecodeWorkspace reconstructs a fresh Store from the on-disk schema.
func DecodeWorkspace(file WorkspaceFile, s *workspace.Store) error {
	if file.SchemaVersion != SchemaVersion {
		return fmt.Errorf("persist: unsupported schema version %d", file.SchemaVersion)
	}
	for _, rj := range file.Repos {
		worktrees := make([]workspace.Worktree, 0, len(rj.Worktrees))
		for _, wj := range rj.Worktrees {
			worktrees = append(worktrees, workspace.Worktree{
				ID: id.ID(wj.ID), Name: wj.Name, Path: wj.Path, Branch: wj.Branch,
				Status: wj.Status, IsMainWorktree: wj.IsMainWorktree, StableKey: wj.StableKey,
			})
		}
		s.RestoreRepo(workspace.Repo{
			ID: id.ID(rj.ID), Name: rj.Name, RepoPath: rj.RepoPath, StableKey: rj.StableKey,
		}, worktrees)
	}
	for paneIDStr, pj := range file.Panes {
		s.RestorePane(buildPane(id.ID(paneIDStr), pj))
	}
	for _, tj := range file.Tabs {
		t := &workspace.Tab{
			ID:                  id.ID(tj.ID),
			ActiveArrangementID: id.ID(tj.ActiveArrangementID),
			ActivePaneID:        idFromPtr(tj.ActivePaneID),
			ZoomedPaneID:        idFromPtr(tj.ZoomedPaneID),
		}
		for _, aj := range tj.Arrangements {
			a := &workspace.Arrangement{
				ID:        id.ID(aj.ID),
				Name:      aj.Name,
				IsDefault: aj.IsDefault,
				Layout:    layout.Layout{Root: layoutNodeFromJSON(aj.Layout)},
			}
			for _, m := range aj.MinimizedPaneIDs {
				a.MinimizedPaneIDs = append(a.MinimizedPaneIDs, id.ID(m))
			}
			t.Arrangements = append(t.Arrangements, a)
		}
		s.AppendTab(t)
	}
	s.RestoreActiveTab(idFromPtr(file.ActiveTabID))
	return nil
}

func buildPane(paneID id.ID, pj PaneJSON) *workspace.Pane {
	p := &workspace.Pane{
		ID: paneID,
		Content: workspace.Content{
			Kind:         contentKindFromString(pj.Content.Kind),
			WebviewState: pj.Content.WebviewState,
			CodeViewer:   pj.Content.CodeViewer,
			BridgePanel:  pj.Content.BridgePanel,
		},
		Provider:      pj.Provider,
		Lifetime:      lifetimeFromString(pj.Lifetime),
		Residency:     residencyFromString(pj.Residency),
		ParentPaneID:  id.ID(pj.ParentPaneID),
		IsDrawerChild: pj.IsDrawerChild,
		Metadata: workspace.PaneMetadata{
			Title:      pj.Metadata.Title,
			Facets:     pj.Metadata.Facets,
			CWD:        pj.Metadata.CWD,
			WorktreeID: id.ID(pj.Metadata.WorktreeID),
			RepoID:     id.ID(pj.Metadata.RepoID),
		},
	}
	if pj.Drawer != nil {
		d := &workspace.Drawer{
			Layout:       layout.Layout{Root: layoutNodeFromJSON(pj.Drawer.Layout)},
			ActivePaneID: id.ID(pj.Drawer.ActivePaneID),
		}
		for _, m := range pj.Drawer.MinimizedPaneIDs {
			d.MinimizedPaneIDs = append(d.MinimizedPaneIDs, id.ID(m))
		}
		p.Drawer = d
	}
	return p
}

