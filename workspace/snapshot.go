package workspace

import (
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
)

// SnapshotForClose captures the full tab including every arrangement and
// every referenced pane (layout order, ratios, minimized sets, active/
// zoomed pointers, drawer structures). Restoration replays it bit-for-bit.
func (s *Store) SnapshotForClose(tabID id.ID) (TabClose, bool) {
	t, ok := s.tabs[tabID]
	if !ok {
		return TabClose{}, false
	}
	snap := TabClose{Tab: cloneTab(t)}
	seen := make(map[id.ID]bool)
	for _, a := range t.Arrangements {
		snap.Arrangements = append(snap.Arrangements, cloneArrangement(a))
		for _, p := range a.Layout.Leaves() {
			s.collectPaneAndDrawerChildren(p, &snap.Panes, seen)
		}
	}
	return snap, true
}

func (s *Store) collectPaneAndDrawerChildren(paneID id.ID, out *[]Pane, seen map[id.ID]bool) {
	if seen[paneID] {
		return
	}
	p, ok := s.panes[paneID]
	if !ok {
		return
	}
	seen[paneID] = true
	*out = append(*out, *clonePane(p))
	if p.Drawer != nil {
		for _, child := range p.Drawer.Layout.Leaves() {
			s.collectPaneAndDrawerChildren(child, out, seen)
		}
	}
}

// SnapshotForPaneClose captures the closing pane, all its drawer children,
// and an anchor + reinsert hint identifying where in the former parent
// split the pane was.
func (s *Store) SnapshotForPaneClose(paneID, inTab id.ID) (PaneClose, bool) {
	p, ok := s.panes[paneID]
	if !ok {
		return PaneClose{}, false
	}
	snap := PaneClose{TabID: inTab, Pane: clonePane(p), IsDrawerChild: p.IsDrawerChild}

	if p.IsDrawerChild {
		parent := s.panes[p.ParentPaneID]
		if parent != nil && parent.Drawer != nil {
			snap.AnchorPaneID, snap.ReinsertHint = anchorAndHint(parent.Drawer.Layout, paneID)
		}
	} else if t, ok := s.tabs[inTab]; ok {
		if a := t.ActiveArrangement(); a != nil {
			snap.AnchorPaneID, snap.ReinsertHint = anchorAndHint(a.Layout, paneID)
		}
	}

	if p.Drawer != nil {
		seen := map[id.ID]bool{paneID: true}
		var children []Pane
		for _, child := range p.Drawer.Layout.Leaves() {
			s.collectPaneAndDrawerChildren(child, &children, seen)
		}
		snap.DrawerChildPanes = children
	}
	return snap, true
}

// anchorAndHint picks the leaf after paneID in left-to-right leaf order (or,
// for the last leaf, the one before it) as the reinsertion anchor, and which
// side of that anchor paneID occupied. The hint's Direction is the actual direction of
// paneID's parent split, so undo-restore reproduces the original
// orientation rather than defaulting to Horizontal.
func anchorAndHint(l layout.Layout, paneID id.ID) (id.ID, ReinsertHint) {
	dir, _ := l.ParentDirection(paneID)
	leaves := l.Leaves()
	for i, p := range leaves {
		if p != paneID {
			continue
		}
		if i+1 < len(leaves) {
			return leaves[i+1], ReinsertHint{Direction: dir, Position: layout.Before}
		}
		if i > 0 {
			return leaves[i-1], ReinsertHint{Direction: dir, Position: layout.After}
		}
	}
	return id.Nil, ReinsertHint{}
}

// RestoreTabClose re-injects a closed tab's panes and tab record, preserving
// identity. It does not touch the view layer; callers (the coordinator)
// handle view/surface reattachment.
func (s *Store) RestoreTabClose(snap TabClose) {
	for i := range snap.Panes {
		p := clonePane(&snap.Panes[i])
		s.panes[p.ID] = p
	}
	t := cloneTab(&snap.Tab)
	t.Arrangements = make([]*Arrangement, len(snap.Arrangements))
	for i := range snap.Arrangements {
		t.Arrangements[i] = cloneArrangement(&snap.Arrangements[i])
	}
	s.tabs[t.ID] = t
	s.tabOrder = append(s.tabOrder, t.ID)
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
}

// RestorePaneClose re-injects a closed pane (and drawer children) into
// inTab's active arrangement at the recorded anchor/hint. If the anchor is
// gone, the pane is split below the arrangement's first leaf instead.
func (s *Store) RestorePaneClose(snap PaneClose) bool {
	p := clonePane(&snap.Pane)
	s.panes[p.ID] = p
	for i := range snap.DrawerChildPanes {
		child := clonePane(&snap.DrawerChildPanes[i])
		s.panes[child.ID] = child
	}

	if snap.IsDrawerChild {
		parent := s.panes[p.ParentPaneID]
		if parent == nil {
			delete(s.panes, p.ID)
			return false
		}
		if parent.Drawer == nil {
			parent.Drawer = &Drawer{Layout: layout.NewSingleton(p.ID), ActivePaneID: p.ID, IsOpen: true}
		} else if parent.Drawer.Layout.Contains(snap.AnchorPaneID) {
			parent.Drawer.Layout = parent.Drawer.Layout.Insert(p.ID, snap.AnchorPaneID, snap.ReinsertHint.Direction, snap.ReinsertHint.Position, s.ids.New())
		} else {
			anchor := parent.Drawer.Layout.Leaves()
			if len(anchor) == 0 {
				parent.Drawer.Layout = layout.NewSingleton(p.ID)
			} else {
				parent.Drawer.Layout = parent.Drawer.Layout.Insert(p.ID, anchor[0], layout.Horizontal, layout.After, s.ids.New())
			}
		}
		s.markDirty()
		s.bumpRevision()
		s.emitChanged()
		return true
	}

	t, ok := s.tabs[snap.TabID]
	if !ok {
		delete(s.panes, p.ID)
		return false
	}
	a := t.ActiveArrangement()
	if a == nil {
		delete(s.panes, p.ID)
		return false
	}
	if a.Layout.Contains(snap.AnchorPaneID) {
		a.Layout = a.Layout.Insert(p.ID, snap.AnchorPaneID, snap.ReinsertHint.Direction, snap.ReinsertHint.Position, s.ids.New())
	} else if a.Layout.IsEmpty() {
		a.Layout = layout.NewSingleton(p.ID)
	} else {
		anchor := a.Layout.Leaves()[0]
		a.Layout = a.Layout.Insert(p.ID, anchor, layout.Vertical, layout.After, s.ids.New())
	}
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return true
}

// RemoveFailedRestoredPane removes a pane that was just restored but whose
// view could not be recreated, per spec.md §4.6 undo-close fallthrough.
func (s *Store) RemoveFailedRestoredPane(paneID id.ID) {
	for _, t := range s.tabs {
		for _, a := range t.Arrangements {
			if a.Layout.Contains(paneID) {
				a.Layout, _ = a.Layout.Remove(paneID)
			}
		}
	}
	delete(s.panes, paneID)
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
}

func clonePane(p *Pane) *Pane {
	cp := *p
	if p.Metadata.Facets != nil {
		cp.Metadata.Facets = make(map[string]string, len(p.Metadata.Facets))
		for k, v := range p.Metadata.Facets {
			cp.Metadata.Facets[k] = v
		}
	}
	if p.Drawer != nil {
		d := *p.Drawer
		d.MinimizedPaneIDs = append([]id.ID(nil), p.Drawer.MinimizedPaneIDs...)
		cp.Drawer = &d
	}
	return &cp
}

func cloneArrangement(a *Arrangement) *Arrangement {
	ca := *a
	ca.MinimizedPaneIDs = append([]id.ID(nil), a.MinimizedPaneIDs...)
	return &ca
}

func cloneTab(t *Tab) *Tab {
	ct := *t
	ct.Arrangements = nil
	return &ct
}
