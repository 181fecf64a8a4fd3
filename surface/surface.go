// Package surface implements SurfacePolicy (spec.md §4.5): the lifecycle of
// terminal surfaces, independent of the renderer or PTY backend. Surface ids
// are disjoint from pane ids; ManagedSurface.Metadata.PaneID binds them.
package surface

import (
	"errors"
	"log"

	"github.com/tabworks/panecore/id"
)

var errCreateFailed = errors.New("surface: create failed")

// DetachReason distinguishes why a surface is being detached.
type DetachReason int

const (
	Hide DetachReason = iota
	Close
	Move
)

// Metadata is the caller-supplied binding of a surface to its owning pane.
type Metadata struct {
	PaneID     id.ID
	WorktreeID id.ID
	Provider   string
}

// ManagedSurface is everything the policy tracks about one surface.
type ManagedSurface struct {
	ID           id.ID
	OpaqueHandle any
	Metadata     Metadata
}

// ErrorKind enumerates createSurface failure reasons.
type ErrorKind int

const (
	CreateOK ErrorKind = iota
	CreateFailed
)

// Config is opaque surface-creation configuration (shell, env, size) passed
// through to the backend factory untouched.
type Config map[string]any

// Factory creates the backend-specific opaque handle for a new surface.
// Returning a non-nil error is treated as CreateFailed.
type Factory func(cfg Config, meta Metadata) (any, error)

type closedEntry struct {
	surface  ManagedSurface
	closedAt int64
}

// Policy implements SurfacePolicy. Confined to the UI executor like the
// store and registry (spec.md §5) — single-threaded, no locking.
type Policy struct {
	ids     *id.Allocator
	factory Factory
	nowFn   func() int64
	ttlSecs int64

	active map[id.ID]*ManagedSurface
	closed []closedEntry // LIFO: last element is most recently closed

	focused id.ID

	nextCreateFails bool
}

// DefaultTTLSeconds is the default undo-close retention window (5 minutes),
// per spec.md §4.5.
const DefaultTTLSeconds = 5 * 60

// New returns a Policy. nowFn supplies the current time as a monotonic
// second counter (injected so tests can simulate TTL expiry without a real
// clock); factory creates the backend handle.
func New(ids *id.Allocator, factory Factory, nowFn func() int64, ttlSeconds int64) *Policy {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	return &Policy{
		ids: ids, factory: factory, nowFn: nowFn, ttlSecs: ttlSeconds,
		active: make(map[id.ID]*ManagedSurface),
	}
}

// FailNextCreate makes the next CreateSurface call return CreateFailed, then
// resets. Test-only hook for exercising spec.md §8 scenario 5.
func (p *Policy) FailNextCreate() { p.nextCreateFails = true }

// CreateSurface allocates a new surface. On backend failure no surface is
// tracked and the caller must not call attach/detach for it.
func (p *Policy) CreateSurface(cfg Config, meta Metadata) (ManagedSurface, ErrorKind, error) {
	if p.nextCreateFails {
		p.nextCreateFails = false
		log.Printf("surface: create failed for pane %s (forced)", meta.PaneID)
		return ManagedSurface{}, CreateFailed, errCreateFailed
	}
	handle, err := p.factory(cfg, meta)
	if err != nil {
		log.Printf("surface: create failed for pane %s: %v", meta.PaneID, err)
		return ManagedSurface{}, CreateFailed, err
	}
	ms := ManagedSurface{ID: p.ids.New(), OpaqueHandle: handle, Metadata: meta}
	p.active[ms.ID] = &ms
	return ms, CreateOK, nil
}

// Attach marks surfaceID active for paneID and returns its handle.
func (p *Policy) Attach(surfaceID, paneID id.ID) (any, bool) {
	ms, ok := p.active[surfaceID]
	if !ok {
		return nil, false
	}
	ms.Metadata.PaneID = paneID
	return ms.OpaqueHandle, true
}

// Detach removes surfaceID from the active set. Close pushes it onto the
// undo-close stack; Hide and Move leave it untouched beyond bookkeeping.
func (p *Policy) Detach(surfaceID id.ID, reason DetachReason) {
	ms, ok := p.active[surfaceID]
	if !ok {
		return
	}
	if reason != Close {
		return
	}
	delete(p.active, surfaceID)
	p.closed = append(p.closed, closedEntry{surface: *ms, closedAt: p.nowFn()})
	if p.focused == surfaceID {
		p.focused = id.Nil
	}
}

// UndoClose pops the most recently closed surface, if still within TTL.
// Surfaces older than TTL are dropped (destroyed) as they're encountered.
func (p *Policy) UndoClose() (ManagedSurface, bool) {
	now := p.nowFn()
	for len(p.closed) > 0 {
		top := p.closed[len(p.closed)-1]
		p.closed = p.closed[:len(p.closed)-1]
		if now-top.closedAt > p.ttlSecs {
			log.Printf("surface: discarding expired undo-close surface %s", top.surface.ID)
			continue
		}
		return top.surface, true
	}
	return ManagedSurface{}, false
}

// RequeueUndo puts a popped surface back on top of the undo-close stack —
// used when a consumer popped a surface whose metadata didn't match what it
// expected.
func (p *Policy) RequeueUndo(ms ManagedSurface) {
	p.closed = append(p.closed, closedEntry{surface: ms, closedAt: p.nowFn()})
}

// Destroy hard tears down a surface, wherever it currently lives.
func (p *Policy) Destroy(surfaceID id.ID) {
	delete(p.active, surfaceID)
	for i, c := range p.closed {
		if c.surface.ID == surfaceID {
			p.closed = append(p.closed[:i], p.closed[i+1:]...)
			return
		}
	}
}

// SyncFocus focuses exactly one surface (or none), unfocusing all others in
// a single logical batch.
func (p *Policy) SyncFocus(activeSurfaceID id.ID) {
	p.focused = activeSurfaceID
}

// FocusedSurfaceID returns the currently focused surface, or id.Nil.
func (p *Policy) FocusedSurfaceID() id.ID { return p.focused }

// UndoStackDepth reports the number of surfaces on the close-undo stack.
func (p *Policy) UndoStackDepth() int { return len(p.closed) }
