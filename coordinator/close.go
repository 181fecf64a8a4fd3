package coordinator

import (
	"log"

	"github.com/tabworks/panecore/action"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/view"
	"github.com/tabworks/panecore/workspace"
)

// closeTab implements spec.md §4.6's "close with undo" for a whole tab.
func (c *Coordinator) closeTab(tabID id.ID) action.Verdict {
	c.store.RunPrePersistHook()

	snap, ok := c.store.SnapshotForClose(tabID)
	if !ok {
		return action.Verdict{Kind: action.InvalidPayload, Reason: "unknown tab"}
	}
	c.pushUndo(undoEntry{kind: undoTab, tab: snap})

	for i := range snap.Panes {
		c.tearDownPaneView(snap.Panes[i].ID)
	}

	c.store.RemoveTab(tabID)
	c.expireOldUndoEntries()
	return action.Verdict{Kind: action.OK}
}

// closePane implements spec.md §4.6's non-tab-closing branches.
func (c *Coordinator) closePane(tabID, paneID id.ID) action.Verdict {
	p := c.store.Pane(paneID)
	if p == nil {
		return action.Verdict{Kind: action.InvalidPayload, Reason: "unknown pane"}
	}

	if p.IsDrawerChild {
		snap, ok := c.store.SnapshotForPaneClose(paneID, tabID)
		if !ok {
			return action.Verdict{Kind: action.SnapshotUnavailable}
		}
		c.pushUndo(undoEntry{kind: undoPane, pane: snap})
		c.tearDownPaneView(paneID)
		c.store.RemoveDrawerPane(p.ParentPaneID, paneID)
		c.expireOldUndoEntries()
		return action.Verdict{Kind: action.OK}
	}

	tab := c.store.Tab(tabID)
	if tab != nil {
		if arr := tab.ActiveArrangement(); arr != nil && len(arr.Layout.Leaves()) <= 1 && arr.Layout.Contains(paneID) {
			// Escalate: closing the last pane of a tab produces one
			// tab-undo entry, never both (spec.md §4.6).
			return c.closeTab(tabID)
		}
	}

	snap, ok := c.store.SnapshotForPaneClose(paneID, tabID)
	if !ok {
		return action.Verdict{Kind: action.SnapshotUnavailable}
	}
	c.pushUndo(undoEntry{kind: undoPane, pane: snap})

	for i := range snap.DrawerChildPanes {
		c.tearDownPaneView(snap.DrawerChildPanes[i].ID)
	}
	c.tearDownPaneView(paneID)

	if tab != nil {
		if arr := tab.ActiveArrangement(); arr != nil {
			arr.Layout, _ = arr.Layout.Remove(paneID)
		}
	}
	c.store.RemoveFailedRestoredPane(paneID) // also removes if now unreferenced; no-op harmless otherwise guarded below
	c.expireOldUndoEntries()
	return action.Verdict{Kind: action.OK}
}

// tearDownPaneView unregisters the view and requests a surface detach with
// reason close (pushing it onto the surface-undo stack), per spec.md §4.6
// step 3's deletion ordering: drawer children first, handled by callers.
func (c *Coordinator) tearDownPaneView(paneID id.ID) {
	v := c.views.View(paneID)
	if v == nil {
		return
	}
	if v.Kind == view.KindTerminal {
		c.surfaces.Detach(v.TerminalSurfaceID, surface.Close)
	}
	c.views.Unregister(paneID)
}

func (c *Coordinator) pushUndo(e undoEntry) {
	c.closeUndo = append(c.closeUndo, e)
}

// expireOldUndoEntries enforces the fixed undo-stack capacity (spec.md
// §4.6's "undo stack GC"): evicting the oldest entry destroys any pane it
// owned that is no longer reachable from any live tab.
func (c *Coordinator) expireOldUndoEntries() {
	for len(c.closeUndo) > undoStackCapacity {
		oldest := c.closeUndo[0]
		c.closeUndo = c.closeUndo[1:]
		c.destroyUnreferencedFromEntry(oldest)
	}
}

func (c *Coordinator) destroyUnreferencedFromEntry(e undoEntry) {
	var paneIDs []id.ID
	switch e.kind {
	case undoTab:
		for i := range e.tab.Panes {
			paneIDs = append(paneIDs, e.tab.Panes[i].ID)
		}
	case undoPane:
		paneIDs = append(paneIDs, e.pane.Pane.ID)
		for i := range e.pane.DrawerChildPanes {
			paneIDs = append(paneIDs, e.pane.DrawerChildPanes[i].ID)
		}
	}
	for _, pid := range paneIDs {
		p := c.store.Pane(pid)
		if p == nil {
			continue
		}
		// PurgeOrphanedPane only deletes backgrounded panes; panes of a
		// closed tab are still marked active, so mark them first and put
		// the residency back if the pane is still referenced.
		prev := p.Residency
		p.Residency = workspace.ResidencyBackgrounded
		if !c.store.PurgeOrphanedPane(pid) {
			p.Residency = prev
			log.Printf("coordinator: undo GC left pane %s in place (still referenced)", pid)
		}
	}
}

// UndoClose pops the top undo-stack entry (spec.md §4.6's "undo close").
func (c *Coordinator) UndoClose() action.Verdict {
	for len(c.closeUndo) > 0 {
		top := c.closeUndo[len(c.closeUndo)-1]
		c.closeUndo = c.closeUndo[:len(c.closeUndo)-1]

		switch top.kind {
		case undoTab:
			c.restoreTabClose(top.tab)
			return action.Verdict{Kind: action.OK}
		case undoPane:
			if top.pane.IsDrawerChild {
				if c.store.Pane(top.pane.Pane.ParentPaneID) == nil {
					continue // parent gone; discard and try next
				}
			} else if c.store.Tab(top.pane.TabID) == nil {
				continue // home tab gone; discard and try next
			}
			c.restorePaneClose(top.pane)
			return action.Verdict{Kind: action.OK}
		}
	}
	return action.Verdict{Kind: action.SnapshotUnavailable, Reason: "undo stack empty"}
}

// restoreTabClose replays a TabClose snapshot and reattaches views/surfaces
// for every restored pane in reverse order (LIFO, matching the surface-undo
// stack's push order).
func (c *Coordinator) restoreTabClose(snap workspace.TabClose) {
	c.store.RestoreTabClose(snap)

	for i := len(snap.Panes) - 1; i >= 0; i-- {
		c.reattachOrRecreate(&snap.Panes[i])
	}

	c.pruneEmptyArrangements(snap.Tab.ID)
	c.store.SetActiveTab(snap.Tab.ID)
}

// restorePaneClose replays a PaneClose snapshot.
func (c *Coordinator) restorePaneClose(snap workspace.PaneClose) {
	ok := c.store.RestorePaneClose(snap)
	if !ok {
		log.Printf("coordinator: restore pane close failed for pane %s", snap.Pane.ID)
		return
	}
	for i := len(snap.DrawerChildPanes) - 1; i >= 0; i-- {
		c.reattachOrRecreate(&snap.DrawerChildPanes[i])
	}
	c.reattachOrRecreate(&snap.Pane)

	if !snap.IsDrawerChild {
		c.pruneEmptyArrangements(snap.TabID)
	}
}

// reattachOrRecreate implements spec.md §4.6's per-pane undo-restore rule:
// try to pop a matching surface off the undo-close stack; on mismatch,
// requeue it and build a fresh view instead. Panes whose view cannot be
// built at all are removed with RemoveFailedRestoredPane.
func (c *Coordinator) reattachOrRecreate(p *workspace.Pane) {
	if p.Content.Kind != workspace.ContentTerminal {
		v, err := c.viewFactory(p.Content, p.ID)
		if err != nil {
			log.Printf("coordinator: could not recreate view for restored pane %s: %v", p.ID, err)
			c.store.RemoveFailedRestoredPane(p.ID)
			return
		}
		c.views.Register(v)
		return
	}

	v, err := c.viewFactory(p.Content, p.ID)
	if err != nil {
		log.Printf("coordinator: could not recreate view for restored pane %s: %v", p.ID, err)
		c.store.RemoveFailedRestoredPane(p.ID)
		return
	}

	if ms, ok := c.surfaces.UndoClose(); ok {
		if ms.Metadata.PaneID == p.ID {
			v.TerminalSurfaceID = ms.ID
			c.surfaces.Attach(ms.ID, p.ID)
			c.views.Register(v)
			return
		}
		c.surfaces.RequeueUndo(ms)
	}

	// Terminal panes without a matching undo-close surface — including
	// floating terminals with no worktree context — still get a fresh view.
	ms, kind, err := c.surfaces.CreateSurface(c.surfaceConfig(p), surface.Metadata{PaneID: p.ID})
	if err != nil || kind != surface.CreateOK {
		log.Printf("coordinator: could not recreate surface for restored pane %s: %v", p.ID, err)
		c.store.RemoveFailedRestoredPane(p.ID)
		return
	}
	v.TerminalSurfaceID = ms.ID
	c.surfaces.Attach(ms.ID, p.ID)
	c.views.Register(v)
}

// pruneEmptyArrangements falls back to another non-empty arrangement if the
// active one ended up empty; removes the tab if none remain non-empty.
func (c *Coordinator) pruneEmptyArrangements(tabID id.ID) {
	t := c.store.Tab(tabID)
	if t == nil {
		return
	}
	active := t.ActiveArrangement()
	if active == nil || !active.Layout.IsEmpty() {
		return
	}
	for _, a := range t.Arrangements {
		if !a.Layout.IsEmpty() {
			c.store.SwitchArrangement(tabID, a.ID)
			return
		}
	}
	c.store.RemoveTab(tabID)
}
