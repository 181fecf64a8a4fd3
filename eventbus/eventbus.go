// Package eventbus implements the typed multi-subscriber fan-out of
// RuntimeEnvelope described in spec.md §4.9: system/worktree/pane envelopes
// from filesystem/git/forge actors and pane runtimes.
package eventbus

import (
	"sync"

	"github.com/tabworks/panecore/id"
)

// EnvelopeKind tags which variant of RuntimeEnvelope this is.
type EnvelopeKind int

const (
	System EnvelopeKind = iota
	Worktree
	Pane
)

// SystemTopic names a system.* event.
type SystemTopic string

const (
	TopicRepoDiscovered       SystemTopic = "system.topology.repoDiscovered"
	TopicRepoRemoved          SystemTopic = "system.topology.repoRemoved"
	TopicWorktreeRegistered   SystemTopic = "system.topology.worktreeRegistered"
	TopicWorktreeUnregistered SystemTopic = "system.topology.worktreeUnregistered"

	// TopicScopeChange is emitted by CacheCoordinator back onto the bus when
	// a worktree's origin changes, asking the filesystem pipeline to
	// register or unregister the repo's forge scope (spec.md §4.9).
	TopicScopeChange SystemTopic = "system.scopeChange"
)

// WorktreeTopic names a worktree.* event.
type WorktreeTopic string

const (
	TopicGitWorkingDirectory WorktreeTopic = "worktree.gitWorkingDirectory"
	TopicForge               WorktreeTopic = "worktree.forge"
	TopicOriginChanged       WorktreeTopic = "worktree.originChanged"
	TopicBranchChanged       WorktreeTopic = "worktree.branchChanged"

	// TopicForgeRefreshRequested is emitted by CacheCoordinator in response
	// to a branchChanged event, carrying the triggering correlation id
	// forward to the forge actor (spec.md §4.9).
	TopicForgeRefreshRequested WorktreeTopic = "worktree.forgeRefreshRequested"
)

// Envelope is the single wire type carried on the bus; only the fields for
// Kind are populated.
type Envelope struct {
	Kind          EnvelopeKind
	CorrelationID id.ID
	Source        string

	SystemTopic    SystemTopic
	WorktreeTopic  WorktreeTopic
	RepoID         id.ID
	WorktreeID     id.ID
	PaneID         id.ID
	PaneEventKind  string
	Payload        map[string]any
}

// Subscriber receives envelopes. Delivery to a given subscriber preserves
// the emission order of any single source (spec.md §5); across sources no
// ordering is guaranteed.
type Subscriber func(Envelope)

// Bus is the multi-subscriber fan-out. Subscriptions may be added and
// removed from any goroutine; Publish delivers synchronously to every
// subscriber present at the time of the call.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]Subscriber
	nextID      int
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[int]Subscriber)}
}

// Subscribe registers fn and returns an unsubscribe function.
func (b *Bus) Subscribe(fn Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := b.nextID
	b.nextID++
	b.subscribers[token] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, token)
	}
}

// Publish fans env out to every current subscriber.
func (b *Bus) Publish(env Envelope) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(env)
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
