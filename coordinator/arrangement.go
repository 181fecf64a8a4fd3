package coordinator

import (
	"github.com/tabworks/panecore/action"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/surface"
)

// switchArrangement implements the view-layer reconciliation spec.md §4.6
// describes for arrangement switches: compute the set difference between
// previously-visible, newly-visible, and previously-minimized panes, then
// detach(hide) what's now hidden and attach what's newly revealed. Panes
// already visible in both arrangements get neither call.
func (c *Coordinator) switchArrangement(tabID, toArrangementID id.ID) action.Verdict {
	tab := c.store.Tab(tabID)
	if tab == nil {
		return action.Verdict{Kind: action.InvalidPayload, Reason: "unknown tab"}
	}
	prevArr := tab.ActiveArrangement()
	if prevArr == nil {
		return action.Verdict{Kind: action.InvalidPayload, Reason: "tab has no active arrangement"}
	}

	prevVisible := visibleSet(prevArr.Layout.Leaves(), prevArr.MinimizedPaneIDs)

	if !c.store.SwitchArrangement(tabID, toArrangementID) {
		return action.Verdict{Kind: action.InvalidPayload, Reason: "unknown arrangement"}
	}

	newArr := tab.ActiveArrangement()
	if newArr == nil {
		return action.Verdict{Kind: action.OK}
	}
	newVisible := visibleSet(newArr.Layout.Leaves(), newArr.MinimizedPaneIDs)

	for paneID := range prevVisible {
		if !newVisible[paneID] {
			if v := c.views.View(paneID); v != nil {
				c.surfaces.Detach(v.TerminalSurfaceID, surface.Hide)
			}
		}
	}
	for paneID := range newVisible {
		if !prevVisible[paneID] {
			if v := c.views.View(paneID); v != nil {
				c.surfaces.Attach(v.TerminalSurfaceID, paneID)
			}
		}
	}
	return action.Verdict{Kind: action.OK}
}

// visibleSet is every leaf pane id minus the minimized ones.
func visibleSet(leaves, minimized []id.ID) map[id.ID]bool {
	min := make(map[id.ID]bool, len(minimized))
	for _, p := range minimized {
		min[p] = true
	}
	out := make(map[id.ID]bool, len(leaves))
	for _, p := range leaves {
		if !min[p] {
			out[p] = true
		}
	}
	return out
}
