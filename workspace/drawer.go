package workspace

import (
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/layout"
)

// AddDrawerPane attaches a new drawer child to parentPaneID, creating the
// drawer if it doesn't exist yet.
func (s *Store) AddDrawerPane(parentPaneID, childPaneID id.ID) bool {
	parent, ok := s.panes[parentPaneID]
	if !ok {
		return false
	}
	child, ok := s.panes[childPaneID]
	if !ok || s.paneReferenced(childPaneID) {
		return false
	}
	if parent.Drawer == nil {
		parent.Drawer = &Drawer{Layout: layout.NewSingleton(childPaneID), ActivePaneID: childPaneID, IsOpen: true}
	} else {
		parent.Drawer.Layout = parent.Drawer.Layout.Insert(childPaneID, parent.Drawer.Layout.Leaves()[0], layout.Horizontal, layout.After, s.ids.New())
		parent.Drawer.ActivePaneID = childPaneID
	}
	child.IsDrawerChild = true
	child.ParentPaneID = parentPaneID
	child.Residency = ResidencyActive
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return true
}

// InsertDrawerPane inserts an existing pooled pane into parentPaneID's
// drawer anchored at target.
func (s *Store) InsertDrawerPane(parentPaneID, childPaneID, target id.ID, dir layout.SplitDirection, pos layout.Position) bool {
	parent, ok := s.panes[parentPaneID]
	if !ok || parent.Drawer == nil {
		return false
	}
	child, ok := s.panes[childPaneID]
	if !ok || s.paneReferenced(childPaneID) {
		return false
	}
	parent.Drawer.Layout = parent.Drawer.Layout.Insert(childPaneID, target, dir, pos, s.ids.New())
	child.IsDrawerChild = true
	child.ParentPaneID = parentPaneID
	child.Residency = ResidencyActive
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return true
}

// RemoveDrawerPane removes childPaneID from its parent's drawer. Returns
// whether the drawer is now empty.
func (s *Store) RemoveDrawerPane(parentPaneID, childPaneID id.ID) (empty bool, ok bool) {
	parent, found := s.panes[parentPaneID]
	if !found || parent.Drawer == nil {
		return false, false
	}
	newLayout, isEmpty := parent.Drawer.Layout.Remove(childPaneID)
	parent.Drawer.Layout = newLayout
	parent.Drawer.MinimizedPaneIDs = removeID(parent.Drawer.MinimizedPaneIDs, childPaneID)
	if parent.Drawer.ActivePaneID == childPaneID {
		parent.Drawer.ActivePaneID = id.Nil
		if leaves := newLayout.Leaves(); len(leaves) > 0 {
			parent.Drawer.ActivePaneID = leaves[0]
		}
	}
	if isEmpty {
		parent.Drawer = nil
	}
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return isEmpty, true
}

// MoveDrawerPane relocates a drawer child to a new anchor within the same
// drawer.
func (s *Store) MoveDrawerPane(parentPaneID, childPaneID, target id.ID, dir layout.SplitDirection, pos layout.Position) bool {
	parent, ok := s.panes[parentPaneID]
	if !ok || parent.Drawer == nil || !parent.Drawer.Layout.Contains(childPaneID) {
		return false
	}
	newLayout, _ := parent.Drawer.Layout.Remove(childPaneID)
	parent.Drawer.Layout = newLayout.Insert(childPaneID, target, dir, pos, s.ids.New())
	s.markDirty()
	s.bumpRevision()
	s.emitChanged()
	return true
}

// ResizeDrawerPane / EqualizeDrawerPanes mirror Layout.Resize/Equalize for a
// parent pane's drawer tree.
func (s *Store) ResizeDrawerPane(parentPaneID, splitID id.ID, ratio float64) bool {
	parent, ok := s.panes[parentPaneID]
	if !ok || parent.Drawer == nil {
		return false
	}
	parent.Drawer.Layout = parent.Drawer.Layout.Resize(splitID, ratio)
	s.markDirty()
	s.emitChanged()
	return true
}

func (s *Store) EqualizeDrawerPanes(parentPaneID id.ID) bool {
	parent, ok := s.panes[parentPaneID]
	if !ok || parent.Drawer == nil {
		return false
	}
	parent.Drawer.Layout = parent.Drawer.Layout.Equalize()
	s.markDirty()
	s.emitChanged()
	return true
}

// ToggleDrawer flips whether parentPaneID's drawer is open, returning the
// drawer's new IsOpen state. A nil drawer is a no-op (ok=false); the
// coordinator is responsible for the resulting hide/show view-level
// effects.
func (s *Store) ToggleDrawer(parentPaneID id.ID) (isOpen bool, ok bool) {
	parent, found := s.panes[parentPaneID]
	if !found || parent.Drawer == nil {
		return false, false
	}
	parent.Drawer.IsOpen = !parent.Drawer.IsOpen
	s.markDirty()
	s.emitChanged()
	return parent.Drawer.IsOpen, true
}
