package coordinator

import (
	"github.com/tabworks/panecore/action"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/workspace"
)

// applyDrawer dispatches the drawer-family PaneAction variants to their
// workspace.Store operations, reconciling views/surfaces the same way the
// main-layout variants do.
func (c *Coordinator) applyDrawer(act action.PaneAction) {
	switch act.Kind {
	case action.AddDrawerPane:
		c.store.AddDrawerPane(act.TargetPane, act.PaneID)
	case action.InsertDrawerPane:
		c.store.InsertDrawerPane(act.TargetPane, act.PaneID, act.Source.ExistingPaneID, act.Direction, act.Position)
	case action.RemoveDrawerPane:
		c.tearDownPaneView(act.PaneID)
		c.store.RemoveDrawerPane(act.TargetPane, act.PaneID)
	case action.ToggleDrawer:
		c.toggleDrawer(act.PaneID)
	case action.SetActiveDrawerPane:
		c.store.SetActiveDrawerPane(act.TargetPane, act.PaneID)
	case action.ResizeDrawerPane:
		c.store.ResizeDrawerPane(act.TargetPane, act.ArrangementID, act.Ratio)
	case action.EqualizeDrawerPanes:
		c.store.EqualizeDrawerPanes(act.TargetPane)
	case action.MinimizeDrawerPane:
		if c.store.MinimizeDrawerPane(act.TargetPane, act.PaneID) {
			if v := c.views.View(act.PaneID); v != nil {
				c.surfaces.Detach(v.TerminalSurfaceID, surface.Hide)
			}
		}
	case action.ExpandDrawerPane:
		if c.store.ExpandDrawerPane(act.TargetPane, act.PaneID) {
			if v := c.views.View(act.PaneID); v != nil {
				c.surfaces.Attach(v.TerminalSurfaceID, act.PaneID)
			}
		}
	case action.MoveDrawerPane:
		c.store.MoveDrawerPane(act.TargetPane, act.PaneID, act.Source.ExistingPaneID, act.Direction, act.Position)
	}
}

// toggleDrawer flips parentPaneID's drawer open/closed and detaches (on
// close) or attaches (on reopen) every drawer child's surface, mirroring
// the arrangement-switch view-diff reconciliation for a drawer's own
// visibility instead of a tab's.
func (c *Coordinator) toggleDrawer(parentPaneID id.ID) {
	isOpen, ok := c.store.ToggleDrawer(parentPaneID)
	if !ok {
		return
	}
	parent := c.store.Pane(parentPaneID)
	if parent == nil || parent.Drawer == nil {
		return
	}
	for _, childID := range parent.Drawer.Layout.Leaves() {
		v := c.views.View(childID)
		if v == nil {
			continue
		}
		if isOpen {
			c.surfaces.Attach(v.TerminalSurfaceID, childID)
		} else {
			c.surfaces.Detach(v.TerminalSurfaceID, surface.Hide)
		}
	}
}

// applyRepair implements the command-surface repair actions named in
// spec.md §7 ("repair actions ... are available through the command surface
// for explicit user recovery"): recreateSurface and createMissingView.
func (c *Coordinator) applyRepair(act action.PaneAction) {
	p := c.store.Pane(act.PaneID)
	if p == nil {
		return
	}
	switch act.RepairKind {
	case "recreateSurface":
		if p.Content.Kind != workspace.ContentTerminal {
			return
		}
		ms, kind, err := c.surfaces.CreateSurface(c.surfaceConfig(p), surface.Metadata{PaneID: p.ID})
		if err != nil || kind != surface.CreateOK {
			return
		}
		if v := c.views.View(p.ID); v != nil {
			v.TerminalSurfaceID = ms.ID
			c.views.Register(*v)
		}
		c.surfaces.Attach(ms.ID, p.ID)
	case "createMissingView":
		if c.views.Contains(p.ID) {
			return
		}
		v, err := c.viewFactory(p.Content, p.ID)
		if err != nil {
			return
		}
		c.views.Register(v)
	}
}
