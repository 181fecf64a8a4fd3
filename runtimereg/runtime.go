// Package runtimereg implements RuntimeRegistry (spec.md §4.7): routing of
// commands to per-pane runtime handlers and broadcasting of the events those
// runtimes emit.
package runtimereg

import (
	"context"
	"log"
	"time"

	"github.com/tabworks/panecore/action"
	"github.com/tabworks/panecore/id"
)

// Lifecycle is a runtime's readiness state.
type Lifecycle int

const (
	Initializing Lifecycle = iota
	Ready
	Terminated
)

// Capability names a command family a runtime supports.
type Capability string

// Envelope wraps a command dispatched to a runtime with a fresh command id,
// the caller's correlation id, and a monotonic timestamp (spec.md §4.7 step 6).
type Envelope struct {
	CommandID     id.ID
	CorrelationID id.ID
	Timestamp     time.Time
	Command       string
	Payload       map[string]any
}

// EventEnvelope is what a runtime emits back (title changed, new-split
// requested, etc.).
type EventEnvelope struct {
	PaneID  id.ID
	Kind    string
	Payload map[string]any
}

// ActionResult is what handling a command produces: either a resolved
// PaneAction the coordinator should re-enter execute() with, or nothing.
type ActionResult struct {
	Action PaneActionOrNone
}

// PaneActionOrNone avoids importing action.PaneAction with a pointer that
// could be nil-mishandled; Valid is false when the runtime produced no
// action for this command.
type PaneActionOrNone struct {
	Action action.PaneAction
	Valid  bool
}

// Runtime is the per-pane behavior backend (spec.md §4.7).
type Runtime interface {
	PaneID() id.ID
	Lifecycle() Lifecycle
	Metadata() map[string]string
	Capabilities() map[Capability]bool
	HandleCommand(ctx context.Context, env Envelope) (ActionResult, error)
	Subscribe() <-chan EventEnvelope
}

// DispatchErrorKind mirrors the relevant subset of action.ErrorKind for
// dispatch-specific failures that don't need a PaneAction to describe.
type DispatchErrorKind = action.ErrorKind

// Registry registers at most one runtime per pane, and drives the six-step
// dispatch pipeline from spec.md §4.7. Confined to the UI executor.
type Registry struct {
	ids      *id.Allocator
	runtimes map[id.ID]Runtime
	cancels  map[id.ID]context.CancelFunc
}

// New returns an empty registry.
func New(ids *id.Allocator) *Registry {
	return &Registry{ids: ids, runtimes: make(map[id.ID]Runtime), cancels: make(map[id.ID]context.CancelFunc)}
}

// Register installs runtime for its pane, replacing any prior one.
func (r *Registry) Register(rt Runtime) {
	r.Unregister(rt.PaneID())
	r.runtimes[rt.PaneID()] = rt
}

// RegisterWithSubscription installs runtime and starts forwarding its event
// stream to onEvent until the returned cancel is called or Unregister runs.
// Cancellation happens before the runtime is forgotten (spec.md §5).
func (r *Registry) RegisterWithSubscription(ctx context.Context, rt Runtime, onEvent func(EventEnvelope)) {
	r.Register(rt)
	subCtx, cancel := context.WithCancel(ctx)
	r.cancels[rt.PaneID()] = cancel
	ch := rt.Subscribe()
	go func() {
		for {
			select {
			case <-subCtx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				onEvent(ev)
			}
		}
	}()
}

// Unregister cancels the pane's subscription (if any) and forgets its runtime.
func (r *Registry) Unregister(paneID id.ID) {
	if cancel, ok := r.cancels[paneID]; ok {
		cancel()
		delete(r.cancels, paneID)
	}
	delete(r.runtimes, paneID)
}

// Get returns the runtime registered for paneID, or nil.
func (r *Registry) Get(paneID id.ID) Runtime { return r.runtimes[paneID] }

// Resolver looks up a target pane id given a direct reference or an
// activity-based hint (e.g. "the active pane of the active tab").
type Resolver func() (id.ID, bool)

// DispatchRuntimeCommand implements the six-step pipeline of spec.md §4.7.
func (r *Registry) DispatchRuntimeCommand(ctx context.Context, command string, requiredCap Capability, targetWorktreeID id.ID, isDiffLoad bool, resolve Resolver, correlationID id.ID, payload map[string]any) (ActionResult, DispatchErrorKind) {
	targetPaneID, ok := resolve()
	if !ok {
		log.Printf("runtimereg: dispatch %q: could not resolve target", command)
		return ActionResult{}, action.InvalidPayload
	}

	rt := r.Get(targetPaneID)
	if rt == nil {
		log.Printf("runtimereg: dispatch %q: no runtime for pane %s", command, targetPaneID)
		return ActionResult{}, action.BackendUnavailable
	}

	if rt.Lifecycle() != Ready {
		log.Printf("runtimereg: dispatch %q: runtime for pane %s not ready", command, targetPaneID)
		return ActionResult{}, action.RuntimeNotReady
	}

	if requiredCap != "" && !rt.Capabilities()[requiredCap] {
		log.Printf("runtimereg: dispatch %q: pane %s lacks capability %s", command, targetPaneID, requiredCap)
		return ActionResult{}, action.UnsupportedCommand
	}

	if isDiffLoad {
		meta := rt.Metadata()
		if meta["worktreeId"] != string(targetWorktreeID) {
			log.Printf("runtimereg: dispatch %q: worktree mismatch for pane %s", command, targetPaneID)
			return ActionResult{}, action.InvalidPayload
		}
	}

	env := Envelope{
		CommandID:     r.ids.New(),
		CorrelationID: correlationID,
		Timestamp:     time.Now(),
		Command:       command,
		Payload:       payload,
	}
	result, err := rt.HandleCommand(ctx, env)
	if err != nil {
		log.Printf("runtimereg: runtime for pane %s returned error: %v", targetPaneID, err)
		return ActionResult{}, action.InvalidPayload
	}
	return result, action.OK
}
