package coordinator

import (
	"log"

	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/workspace"
)

// RestoreAllViews rebuilds a view (and, for terminal panes, a surface) for
// every leaf pane loaded from the canonical store at boot. Per spec.md
// §4.8, the active tab is restored first so first-paint is fast; the
// remaining tabs are restored afterward, and yield is called after every
// pair of pane restorations so the UI executor can interleave other work
// (spec.md §5's suspension point (a)).
func (c *Coordinator) RestoreAllViews(yield func()) {
	tabs := c.store.Tabs()
	activeID := c.store.ActiveTabID()

	ordered := make([]*workspace.Tab, 0, len(tabs))
	for _, t := range tabs {
		if t.ID == activeID {
			ordered = append(ordered, t)
		}
	}
	for _, t := range tabs {
		if t.ID != activeID {
			ordered = append(ordered, t)
		}
	}

	restored := 0
	for _, t := range ordered {
		arr := t.ActiveArrangement()
		if arr == nil {
			continue
		}
		for _, paneID := range arr.Layout.Leaves() {
			c.restoreBootPaneView(paneID)
			restored++
			if restored%2 == 0 && yield != nil {
				yield()
			}
		}
	}
}

func (c *Coordinator) restoreBootPaneView(paneID id.ID) {
	if c.views.Contains(paneID) {
		return
	}
	p := c.store.Pane(paneID)
	if p == nil {
		return
	}

	v, err := c.viewFactory(p.Content, p.ID)
	if err != nil {
		log.Printf("coordinator: boot restore: could not build view for pane %s: %v", p.ID, err)
		return
	}

	if p.Content.Kind == workspace.ContentTerminal {
		ms, kind, err := c.surfaces.CreateSurface(c.surfaceConfig(p), surface.Metadata{PaneID: p.ID})
		if err != nil || kind != surface.CreateOK {
			log.Printf("coordinator: boot restore: could not create surface for pane %s: %v", p.ID, err)
			return
		}
		v.TerminalSurfaceID = ms.ID
		c.surfaces.Attach(ms.ID, p.ID)
	}
	c.views.Register(v)
}
