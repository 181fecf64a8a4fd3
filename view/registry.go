// Package view implements the bijection between pane ids and live view
// handles (spec.md §4.3). Like WorkspaceStore, the registry is confined to
// the single UI executor (spec.md §5) and carries no internal locking.
package view

import (
	"log"

	"github.com/tabworks/panecore/id"
)

// Kind tags the concrete shape of a PaneView, mirroring workspace.ContentKind
// without importing it — the registry only needs to distinguish terminal
// views (which carry a surface id) from everything else.
type Kind int

const (
	KindTerminal Kind = iota
	KindWebview
	KindCodeViewer
	KindBridgePanel
	KindUnsupported
)

// PaneView is the live, renderer-owned handle for one pane. TerminalSurfaceID
// is set only when Kind == KindTerminal; Handle is the renderer's opaque
// reference (texture, webview instance, etc.) and is never interpreted here.
type PaneView struct {
	PaneID           id.ID
	Kind             Kind
	TerminalSurfaceID id.ID
	Handle           any
}

// Registry is a bijection paneId -> PaneView, with a monotonic epoch bumped
// on every mutation so the coordinator can skip rebuilding an unchanged tab.
type Registry struct {
	views map[id.ID]*PaneView
	epoch uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{views: make(map[id.ID]*PaneView)}
}

// Register installs v under v.PaneID, replacing any prior view for that
// pane. Returns the replaced view, if any.
func (r *Registry) Register(v PaneView) *PaneView {
	prev := r.views[v.PaneID]
	cp := v
	r.views[v.PaneID] = &cp
	r.epoch++
	if prev != nil {
		log.Printf("view: replaced view for pane %s", v.PaneID)
	}
	return prev
}

// Unregister removes the view for paneID, if present.
func (r *Registry) Unregister(paneID id.ID) {
	if _, ok := r.views[paneID]; !ok {
		return
	}
	delete(r.views, paneID)
	r.epoch++
}

// View returns the view registered for paneID, or nil.
func (r *Registry) View(paneID id.ID) *PaneView { return r.views[paneID] }

// TerminalView returns the view for paneID only if it is a terminal view.
func (r *Registry) TerminalView(paneID id.ID) *PaneView {
	v := r.views[paneID]
	if v == nil || v.Kind != KindTerminal {
		return nil
	}
	return v
}

// AllWebviewViews returns every currently registered webview view.
func (r *Registry) AllWebviewViews() []*PaneView {
	var out []*PaneView
	for _, v := range r.views {
		if v.Kind == KindWebview {
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether paneID has a registered view.
func (r *Registry) Contains(paneID id.ID) bool {
	_, ok := r.views[paneID]
	return ok
}

// Epoch returns the monotonic counter incremented on every mutation.
func (r *Registry) Epoch() uint64 { return r.epoch }

// Count returns the number of live views.
func (r *Registry) Count() int { return len(r.views) }
