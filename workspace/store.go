package workspace

import (
	"fmt"
	"log"

	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
)

// ChangeListener is invoked after any mutation. Confined to the UI executor
// along with the store itself (spec.md §5), so it never needs to be
// goroutine-safe.
type ChangeListener func()

// PrePersistHook lets a collaborator (the coordinator) sync ephemeral view
// state back into the pane model immediately before serialization. Modeled
// as a pull-based callback, never a back-reference, per spec.md §9's
// cyclic-reference redesign note.
type PrePersistHook func(s *Store)

// Store is the canonical, single-writer workspace state. Every structural
// mutation is a method here; the store never reads from the view layer.
// Confined to one cooperative executor (spec.md §5) — no internal locking.
type Store struct {
	ids *id.Allocator

	repos     map[id.ID]*Repo
	worktrees map[id.ID]*Worktree
	panes     map[id.ID]*Pane
	tabs      map[id.ID]*Tab
	tabOrder  []id.ID
	activeTab id.ID

	dirty        bool
	viewRevision uint64
	listeners    []ChangeListener
	prePersist   PrePersistHook
}

// New returns an empty store.
func New(ids *id.Allocator) *Store {
	return &Store{
		ids:       ids,
		repos:     make(map[id.ID]*Repo),
		worktrees: make(map[id.ID]*Worktree),
		panes:     make(map[id.ID]*Pane),
		tabs:      make(map[id.ID]*Tab),
	}
}

// OnChange registers a listener invoked after any mutation.
func (s *Store) OnChange(l ChangeListener) {
	s.listeners = append(s.listeners, l)
}

// SetPrePersistHook installs the hook run before serialization.
func (s *Store) SetPrePersistHook(h PrePersistHook) {
	s.prePersist = h
}

func (s *Store) markDirty() {
	s.dirty = true
}

func (s *Store) bumpRevision() {
	s.viewRevision++
}

func (s *Store) emitChanged() {
	for _, l := range s.listeners {
		l()
	}
}

// ViewRevision returns the monotonic counter bumped on layout-shape changes.
func (s *Store) ViewRevision() uint64 { return s.viewRevision }

// Dirty reports whether the store has unflushed mutations.
func (s *Store) Dirty() bool { return s.dirty }

// ClearDirty is called by the persistence layer after a successful flush.
func (s *Store) ClearDirty() { s.dirty = false }

// RunPrePersistHook invokes the installed pre-persist hook, if any.
func (s *Store) RunPrePersistHook() {
	if s.prePersist != nil {
		s.prePersist(s)
	}
}

// ---- lookups ----

// Pane returns the pane with id, or nil.
func (s *Store) Pane(paneID id.ID) *Pane { return s.panes[paneID] }

// Tab returns the tab with id, or nil.
func (s *Store) Tab(tabID id.ID) *Tab { return s.tabs[tabID] }

// Repo returns the repo with id, or nil.
func (s *Store) Repo(repoID id.ID) *Repo { return s.repos[repoID] }

// Worktree returns the worktree with id, or nil.
func (s *Store) Worktree(wtID id.ID) *Worktree { return s.worktrees[wtID] }

// Tabs returns tabs in their display order.
func (s *Store) Tabs() []*Tab {
	out := make([]*Tab, 0, len(s.tabOrder))
	for _, tid := range s.tabOrder {
		if t := s.tabs[tid]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// ActiveTabID returns the currently active tab, or id.Nil.
func (s *Store) ActiveTabID() id.ID { return s.activeTab }

// ---- repo/worktree discovery mirroring ----

// AddRepo registers a discovered repo. Re-adding an existing stableKey marks
// it available again rather than duplicating it.
func (s *Store) AddRepo(name, repoPath, stableKey string) *Repo {
	for _, r := range s.repos {
		if r.StableKey == stableKey {
			r.Availability = Available
			s.markDirty()
			s.emitChanged()
			return r
		}
	}
	r := &Repo{
		ID:           s.ids.New(),
		Name:         name,
		RepoPath:     repoPath,
		StableKey:    stableKey,
		Availability: Available,
	}
	s.repos[r.ID] = r
	s.markDirty()
	s.emitChanged()
	return r
}

// MarkRepoUnavailable flags a repo as unreachable without deleting it, so
// panes referencing it keep identity (spec.md §3 Repo).
func (s *Store) MarkRepoUnavailable(repoID id.ID) {
	r, ok := s.repos[repoID]
	if !ok {
		log.Printf("workspace: MarkRepoUnavailable: unknown repo %s", repoID)
		return
	}
	r.Availability = Unavailable
	s.markDirty()
	s.emitChanged()
}

// ReconcileDiscoveredWorktrees replaces repoID's worktree list with exactly
// the worktrees discovery reports; worktrees no longer listed are removed.
func (s *Store) ReconcileDiscoveredWorktrees(repoID id.ID, discovered []Worktree) {
	r, ok := s.repos[repoID]
	if !ok {
		log.Printf("workspace: ReconcileDiscoveredWorktrees: unknown repo %s", repoID)
		return
	}
	keep := make(map[id.ID]bool, len(discovered))
	newIDs := make([]id.ID, 0, len(discovered))
	for _, wt := range discovered {
		wt := wt
		existing := s.findWorktreeByStableKey(wt.StableKey)
		if existing != nil {
			existing.Name, existing.Path, existing.Branch, existing.Status, existing.IsMainWorktree = wt.Name, wt.Path, wt.Branch, wt.Status, wt.IsMainWorktree
			keep[existing.ID] = true
			newIDs = append(newIDs, existing.ID)
			continue
		}
		wt.ID = s.ids.New()
		wt.RepoID = repoID
		s.worktrees[wt.ID] = &wt
		keep[wt.ID] = true
		newIDs = append(newIDs, wt.ID)
	}
	for _, oldID := range r.Worktrees {
		if !keep[oldID] {
			delete(s.worktrees, oldID)
		}
	}
	r.Worktrees = newIDs
	s.markDirty()
	s.emitChanged()
}

func (s *Store) findWorktreeByStableKey(key string) *Worktree {
	for _, wt := range s.worktrees {
		if wt.StableKey == key {
			return wt
		}
	}
	return nil
}

// ---- pane pool ----

// CreatePane allocates a fresh pane with no tab linkage.
func (s *Store) CreatePane(content Content, provider string, lifetime Lifetime, residency Residency, facets map[string]string) *Pane {
	p := &Pane{
		ID:        s.ids.New(),
		Content:   content,
		Provider:  provider,
		Lifetime:  lifetime,
		Residency: residency,
		Metadata:  PaneMetadata{Facets: facets},
	}
	s.panes[p.ID] = p
	s.markDirty()
	s.emitChanged()
	return p
}

// paneReferenced reports whether paneID appears in any tab's arrangements,
// any drawer, or as an activePaneId anywhere.
func (s *Store) paneReferenced(paneID id.ID) bool {
	for _, t := range s.tabs {
		for _, a := range t.Arrangements {
			if a.Layout.Contains(paneID) {
				return true
			}
		}
		if t.ActivePaneID == paneID || t.ZoomedPaneID == paneID {
			return true
		}
	}
	for _, p := range s.panes {
		if p.Drawer != nil && p.Drawer.Layout.Contains(paneID) {
			return true
		}
	}
	return false
}

// PurgeOrphanedPane hard-deletes a backgrounded, unreferenced pane.
// Permitted only when the pane is backgrounded and unreferenced; all other
// inputs are a no-op.
func (s *Store) PurgeOrphanedPane(paneID id.ID) bool {
	p, ok := s.panes[paneID]
	if !ok || p.Residency != ResidencyBackgrounded || s.paneReferenced(paneID) {
		return false
	}
	delete(s.panes, paneID)
	s.markDirty()
	s.emitChanged()
	return true
}

// BackgroundPane detaches paneID from any layout it occupies and marks it
// backgrounded.
func (s *Store) BackgroundPane(paneID id.ID) bool {
	p, ok := s.panes[paneID]
	if !ok {
		return false
	}
	for _, t := range s.tabs {
		for _, a := range t.Arrangements {
			if a.Layout.Contains(paneID) {
				newLayout, _ := a.Layout.Remove(paneID)
				a.Layout = newLayout
				a.MinimizedPaneIDs = removeID(a.MinimizedPaneIDs, paneID)
				if t.ActivePaneID == paneID {
					t.ActivePaneID = id.Nil
				}
				if t.ZoomedPaneID == paneID {
					t.ZoomedPaneID = id.Nil
				}
			}
		}
	}
	p.Residency = ResidencyBackgrounded
	p.ParentPaneID = id.Nil
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return true
}

// ReactivatePane moves a backgrounded pane back to active residency and
// inserts it into inTab's active arrangement. Rejects panes that are
// already active (caller should validate first; store mutation is total
// and simply no-ops).
func (s *Store) ReactivatePane(paneID, inTab, target id.ID, dir layout.SplitDirection, pos layout.Position) bool {
	p, ok := s.panes[paneID]
	if !ok || p.Residency != ResidencyBackgrounded {
		return false
	}
	t, ok := s.tabs[inTab]
	if !ok {
		return false
	}
	a := t.ActiveArrangement()
	if a == nil {
		return false
	}
	a.Layout = a.Layout.Insert(paneID, target, dir, pos, s.ids.New())
	p.Residency = ResidencyActive
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return true
}

func removeID(list []id.ID, target id.ID) []id.ID {
	out := list[:0:0]
	for _, x := range list {
		if x != target {
			out = append(out, x)
		}
	}
	return out
}

// ---- tabs ----

// AppendTab adds tab to the end of the tab order.
func (s *Store) AppendTab(t *Tab) {
	s.tabs[t.ID] = t
	s.tabOrder = append(s.tabOrder, t.ID)
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
}

// NewTab allocates a tab with a single default arrangement wrapping paneID
// (or empty, if paneID is id.Nil) and appends it.
func (s *Store) NewTab(paneID id.ID) *Tab {
	arrID := s.ids.New()
	l := layout.New()
	if paneID.Valid() {
		l = layout.NewSingleton(paneID)
	}
	arr := &Arrangement{ID: arrID, Name: "Default", IsDefault: true, Layout: l}
	t := &Tab{ID: s.ids.New(), Arrangements: []*Arrangement{arr}, ActiveArrangementID: arrID, ActivePaneID: paneID}
	s.AppendTab(t)
	return t
}

// RemoveTab deletes tabID from the store. It does not decide what happens
// to the tab's panes — callers orchestrate that via background/close first.
func (s *Store) RemoveTab(tabID id.ID) {
	if _, ok := s.tabs[tabID]; !ok {
		return
	}
	delete(s.tabs, tabID)
	s.tabOrder = removeID(s.tabOrder, tabID)
	if s.activeTab == tabID {
		s.activeTab = id.Nil
		if len(s.tabOrder) > 0 {
			s.activeTab = s.tabOrder[0]
		}
	}
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
}

// MoveTab moves fromID to position toIndex in the tab order.
func (s *Store) MoveTab(fromID id.ID, toIndex int) {
	idx := indexOf(s.tabOrder, fromID)
	if idx < 0 {
		return
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(s.tabOrder)-1 {
		toIndex = len(s.tabOrder) - 1
	}
	s.tabOrder = append(s.tabOrder[:idx], s.tabOrder[idx+1:]...)
	s.tabOrder = append(s.tabOrder[:toIndex], append([]id.ID{fromID}, s.tabOrder[toIndex:]...)...)
	s.markDirty()
	s.emitChanged()
}

// MoveTabByDelta moves tabID by delta positions in the tab order.
func (s *Store) MoveTabByDelta(tabID id.ID, delta int) {
	idx := indexOf(s.tabOrder, tabID)
	if idx < 0 {
		return
	}
	s.MoveTab(tabID, idx+delta)
}

func indexOf(list []id.ID, target id.ID) int {
	for i, x := range list {
		if x == target {
			return i
		}
	}
	return -1
}

// SetActiveTab sets the active tab pointer. No-op for unknown tabs.
func (s *Store) SetActiveTab(tabID id.ID) {
	if _, ok := s.tabs[tabID]; !ok {
		return
	}
	s.activeTab = tabID
	s.emitChanged()
}

// SetActivePane sets inTab's active pane pointer. The pane must be a leaf
// of the active arrangement or a drawer child of such a leaf; otherwise the
// call is a no-op (callers validate beforehand).
func (s *Store) SetActivePane(tabID, paneID id.ID) bool {
	t, ok := s.tabs[tabID]
	if !ok {
		return false
	}
	a := t.ActiveArrangement()
	if a == nil {
		return false
	}
	if a.Layout.Contains(paneID) || s.isDrawerChildOfVisible(a, paneID) {
		t.ActivePaneID = paneID
		s.emitChanged()
		return true
	}
	return false
}

func (s *Store) isDrawerChildOfVisible(a *Arrangement, paneID id.ID) bool {
	child, ok := s.panes[paneID]
	if !ok || !child.IsDrawerChild {
		return false
	}
	return a.Layout.Contains(child.ParentPaneID)
}

// SetActiveDrawerPane sets the active pane within parentPaneID's drawer.
func (s *Store) SetActiveDrawerPane(parentPaneID, childPaneID id.ID) bool {
	parent, ok := s.panes[parentPaneID]
	if !ok || parent.Drawer == nil || !parent.Drawer.Layout.Contains(childPaneID) {
		return false
	}
	parent.Drawer.ActivePaneID = childPaneID
	s.emitChanged()
	return true
}

// ---- layout-affecting pane placement ----

// InsertPane moves an already-pooled pane into inTab's active arrangement,
// anchored at target. Fails ("pane already placed") if paneID is currently
// a leaf anywhere in the store.
func (s *Store) InsertPane(paneID, inTab, target id.ID, dir layout.SplitDirection, pos layout.Position) error {
	if s.paneReferenced(paneID) {
		return fmt.Errorf("workspace: pane %s already placed", paneID)
	}
	t, ok := s.tabs[inTab]
	if !ok {
		return fmt.Errorf("workspace: unknown tab %s", inTab)
	}
	a := t.ActiveArrangement()
	if a == nil {
		return fmt.Errorf("workspace: tab %s has no active arrangement", inTab)
	}
	if !a.Layout.IsEmpty() && !a.Layout.Contains(target) {
		return fmt.Errorf("workspace: target %s is not a leaf of tab %s", target, inTab)
	}
	a.Layout = a.Layout.Insert(paneID, target, dir, pos, s.ids.New())
	if p := s.panes[paneID]; p != nil {
		p.Residency = ResidencyActive
	}
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return nil
}

// ExtractPane removes paneID from fromTab's active arrangement and returns
// a new single-pane Tab appended to the tab order.
func (s *Store) ExtractPane(paneID, fromTab id.ID) *Tab {
	t, ok := s.tabs[fromTab]
	if !ok {
		return nil
	}
	a := t.ActiveArrangement()
	if a == nil || !a.Layout.Contains(paneID) {
		return nil
	}
	a.Layout, _ = a.Layout.Remove(paneID)
	if t.ActivePaneID == paneID {
		t.ActivePaneID = id.Nil
	}
	newTab := s.NewTab(paneID)
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return newTab
}

// BreakUpTab splits a multi-pane tab into N single-pane tabs, preserving
// order, and returns the new tab ids. A no-op (returns nil) on single-pane
// tabs.
func (s *Store) BreakUpTab(tabID id.ID) []id.ID {
	t, ok := s.tabs[tabID]
	if !ok {
		return nil
	}
	a := t.ActiveArrangement()
	if a == nil {
		return nil
	}
	leaves := a.Layout.Leaves()
	if len(leaves) <= 1 {
		return nil
	}
	var newIDs []id.ID
	for _, p := range leaves {
		nt := s.NewTab(p)
		newIDs = append(newIDs, nt.ID)
	}
	s.RemoveTab(tabID)
	return newIDs
}

// MergeTab moves every pane from sourceID into target's active arrangement
// anchored at targetPane, then removes sourceID.
func (s *Store) MergeTab(sourceID, targetID, targetPane id.ID, dir layout.SplitDirection, pos layout.Position) error {
	src, ok := s.tabs[sourceID]
	if !ok {
		return fmt.Errorf("workspace: unknown source tab %s", sourceID)
	}
	srcArr := src.ActiveArrangement()
	if srcArr == nil {
		return fmt.Errorf("workspace: source tab %s has no active arrangement", sourceID)
	}
	anchor := targetPane
	for _, p := range srcArr.Layout.Leaves() {
		if err := s.InsertPane(p, targetID, anchor, dir, pos); err != nil {
			return err
		}
		anchor = p
		pos = layout.After
	}
	s.RemoveTab(sourceID)
	return nil
}

// ---- minimize / expand ----

// MinimizePane adds paneID to arr's minimized set. Returns true if state
// actually changed.
func (s *Store) MinimizePane(tabID, paneID id.ID) bool {
	t, ok := s.tabs[tabID]
	if !ok {
		return false
	}
	a := t.ActiveArrangement()
	if a == nil || containsID(a.MinimizedPaneIDs, paneID) {
		return false
	}
	a.MinimizedPaneIDs = append(a.MinimizedPaneIDs, paneID)
	s.markDirty()
	s.emitChanged()
	return true
}

// ExpandPane removes paneID from arr's minimized set. Returns true if state
// actually changed.
func (s *Store) ExpandPane(tabID, paneID id.ID) bool {
	t, ok := s.tabs[tabID]
	if !ok {
		return false
	}
	a := t.ActiveArrangement()
	if a == nil || !containsID(a.MinimizedPaneIDs, paneID) {
		return false
	}
	a.MinimizedPaneIDs = removeID(a.MinimizedPaneIDs, paneID)
	s.markDirty()
	s.emitChanged()
	return true
}

// MinimizeDrawerPane / ExpandDrawerPane mirror MinimizePane/ExpandPane for a
// parent pane's drawer.
func (s *Store) MinimizeDrawerPane(parentPaneID, childPaneID id.ID) bool {
	p, ok := s.panes[parentPaneID]
	if !ok || p.Drawer == nil || containsID(p.Drawer.MinimizedPaneIDs, childPaneID) {
		return false
	}
	p.Drawer.MinimizedPaneIDs = append(p.Drawer.MinimizedPaneIDs, childPaneID)
	s.markDirty()
	s.emitChanged()
	return true
}

func (s *Store) ExpandDrawerPane(parentPaneID, childPaneID id.ID) bool {
	p, ok := s.panes[parentPaneID]
	if !ok || p.Drawer == nil || !containsID(p.Drawer.MinimizedPaneIDs, childPaneID) {
		return false
	}
	p.Drawer.MinimizedPaneIDs = removeID(p.Drawer.MinimizedPaneIDs, childPaneID)
	s.markDirty()
	s.emitChanged()
	return true
}

func containsID(list []id.ID, target id.ID) bool {
	for _, x := range list {
		if x == target {
			return true
		}
	}
	return false
}

// ---- arrangements ----

// SwitchArrangement atomically sets the tab's active arrangement and clears
// the new arrangement's minimized set (minimization is per-switch-session).
func (s *Store) SwitchArrangement(tabID, toArrangement id.ID) bool {
	t, ok := s.tabs[tabID]
	if !ok {
		return false
	}
	a := t.arrangement(toArrangement)
	if a == nil {
		return false
	}
	t.ActiveArrangementID = toArrangement
	a.MinimizedPaneIDs = nil
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return true
}

// CreateArrangement snapshots the current layout restricted to paneIDs;
// those panes remain owned by the tab.
func (s *Store) CreateArrangement(tabID id.ID, name string, paneIDs []id.ID) *Arrangement {
	t, ok := s.tabs[tabID]
	if !ok {
		return nil
	}
	cur := t.ActiveArrangement()
	if cur == nil {
		return nil
	}
	newLayout := layout.New()
	var anchor id.ID
	for i, p := range paneIDs {
		if !cur.Layout.Contains(p) {
			continue
		}
		if i == 0 {
			newLayout = layout.NewSingleton(p)
		} else {
			newLayout = newLayout.Insert(p, anchor, layout.Vertical, layout.After, s.ids.New())
		}
		anchor = p
	}
	arr := &Arrangement{ID: s.ids.New(), Name: name, Layout: newLayout}
	t.Arrangements = append(t.Arrangements, arr)
	s.markDirty()
	s.emitChanged()
	return arr
}

// RemoveArrangement deletes an arrangement. Refuses (returns false) when the
// tab has only one arrangement left.
func (s *Store) RemoveArrangement(tabID, arrangementID id.ID) bool {
	t, ok := s.tabs[tabID]
	if !ok || len(t.Arrangements) <= 1 {
		return false
	}
	idx := -1
	for i, a := range t.Arrangements {
		if a.ID == arrangementID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	t.Arrangements = append(t.Arrangements[:idx], t.Arrangements[idx+1:]...)
	if t.ActiveArrangementID == arrangementID {
		t.ActiveArrangementID = t.Arrangements[0].ID
	}
	s.markDirty()
	s.emitChanged()
	return true
}

// RenameArrangement renames an arrangement in place.
func (s *Store) RenameArrangement(tabID, arrangementID id.ID, name string) bool {
	t, ok := s.tabs[tabID]
	if !ok {
		return false
	}
	a := t.arrangement(arrangementID)
	if a == nil {
		return false
	}
	a.Name = name
	s.markDirty()
	s.emitChanged()
	return true
}

// ---- pane metadata sync ----

// UpdatePaneCWD records a terminal surface's reported working directory.
// Dirtying: cwd is user-visible, persisted state.
func (s *Store) UpdatePaneCWD(paneID id.ID, cwd string) {
	p, ok := s.panes[paneID]
	if !ok {
		return
	}
	p.Metadata.CWD = cwd
	s.markDirty()
}

// UpdatePaneTitle records a runtime-reported title.
func (s *Store) UpdatePaneTitle(paneID id.ID, title string) {
	p, ok := s.panes[paneID]
	if !ok {
		return
	}
	p.Metadata.Title = title
	s.markDirty()
}

// SyncPaneWebviewState updates the pane's webview state without dirtying
// the store. Used when the source is a runtime sync, to avoid a
// save-loop during the pre-persist hook (spec.md §4.2).
func (s *Store) SyncPaneWebviewState(paneID id.ID, state map[string]any) {
	p, ok := s.panes[paneID]
	if !ok {
		return
	}
	p.Content.WebviewState = state
}

// UpdatePaneWebviewState updates the pane's webview state and dirties the
// store, for explicit user-driven changes.
func (s *Store) UpdatePaneWebviewState(paneID id.ID, state map[string]any) {
	s.SyncPaneWebviewState(paneID, state)
	s.markDirty()
}
