package cache

import (
	"log"

	"github.com/tabworks/panecore/eventbus"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/workspace"
)

// Payload keys used on system.topology and worktree.* envelopes. The
// filesystem/git/forge actors populate these; CacheCoordinator only reads
// them.
const (
	PayloadName      = "name"
	PayloadRepoPath  = "repoPath"
	PayloadStableKey = "stableKey"

	PayloadWorktreeName     = "worktreeName"
	PayloadWorktreePath     = "worktreePath"
	PayloadWorktreeBranch   = "branch"
	PayloadWorktreeStatus   = "status"
	PayloadIsMainWorktree   = "isMainWorktree"
	PayloadWorktreeStableK  = "worktreeStableKey"
	PayloadOrigin           = "origin"
	PayloadPRCount          = "prCount"
	PayloadNotificationCnt  = "notificationCount"
	PayloadScopeRegister    = "register"
)

// Coordinator implements spec.md §4.9's CacheCoordinator: it consumes
// system.topology and worktree.{gitWorkingDirectory,forge} envelopes,
// mirrors discovery into the canonical workspace.Store, and populates the
// derived enrichment Store. On worktree.originChanged it emits a
// system.scopeChange envelope; on worktree.branchChanged it emits a
// worktree.forgeRefreshRequested envelope carrying the triggering
// correlation id.
//
// Confined to the UI executor, same as workspace.Store and Coordinator
// (spec.md §5) — the bus delivers to it synchronously from Publish, so it
// never locks its own state.
type Coordinator struct {
	bus   *eventbus.Bus
	store *workspace.Store
	cache *Store
	nowFn func() int64

	unsubscribe func()

	// repoStableKeys maps a canonical repo id to the stable key used as the
	// enrichment store's primary key, since the bus only carries repo ids
	// once a repo has been mirrored.
	repoStableKeys map[id.ID]string
}

// New returns a CacheCoordinator wired to bus, store, and cache.
func New(bus *eventbus.Bus, store *workspace.Store, cache *Store, nowFn func() int64) *Coordinator {
	return &Coordinator{
		bus:            bus,
		store:          store,
		cache:          cache,
		nowFn:          nowFn,
		repoStableKeys: make(map[id.ID]string),
	}
}

// Start subscribes to the bus. Call the returned function (also stored on
// c) to stop receiving events.
func (c *Coordinator) Start() (stop func()) {
	c.unsubscribe = c.bus.Subscribe(c.handle)
	return c.unsubscribe
}

// Stop unsubscribes from the bus, if subscribed.
func (c *Coordinator) Stop() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Coordinator) handle(env eventbus.Envelope) {
	switch env.Kind {
	case eventbus.System:
		c.handleSystemTopic(env)
	case eventbus.Worktree:
		c.handleWorktreeTopic(env)
	}
}

func (c *Coordinator) handleSystemTopic(env eventbus.Envelope) {
	switch env.SystemTopic {
	case eventbus.TopicRepoDiscovered:
		name, _ := env.Payload[PayloadName].(string)
		repoPath, _ := env.Payload[PayloadRepoPath].(string)
		stableKey, _ := env.Payload[PayloadStableKey].(string)
		if stableKey == "" {
			log.Printf("cache: repoDiscovered missing stableKey, ignoring")
			return
		}
		r := c.store.AddRepo(name, repoPath, stableKey)
		c.repoStableKeys[r.ID] = stableKey

	case eventbus.TopicRepoRemoved:
		if env.RepoID == id.Nil {
			return
		}
		c.store.MarkRepoUnavailable(env.RepoID)
		if key, ok := c.repoStableKeys[env.RepoID]; ok {
			if err := c.cache.Delete(key); err != nil {
				log.Printf("cache: delete enrichment for %s: %v", key, err)
			}
		}

	case eventbus.TopicWorktreeRegistered, eventbus.TopicWorktreeUnregistered:
		c.reconcileWorktrees(env)
	}
}

// reconcileWorktrees replays the discovered-worktree list carried on the
// envelope's payload as a full reconciliation, per
// Store.ReconcileDiscoveredWorktrees's replace-in-full semantics.
func (c *Coordinator) reconcileWorktrees(env eventbus.Envelope) {
	if env.RepoID == id.Nil {
		return
	}
	discovered, ok := env.Payload["discovered"].([]workspace.Worktree)
	if !ok {
		log.Printf("cache: worktree topology event missing discovered list")
		return
	}
	c.store.ReconcileDiscoveredWorktrees(env.RepoID, discovered)
}

func (c *Coordinator) handleWorktreeTopic(env eventbus.Envelope) {
	switch env.WorktreeTopic {
	case eventbus.TopicGitWorkingDirectory:
		c.handleGitWorkingDirectory(env)
	case eventbus.TopicForge:
		c.handleForge(env)
	case eventbus.TopicOriginChanged:
		c.handleOriginChanged(env)
	case eventbus.TopicBranchChanged:
		c.handleBranchChanged(env)
	}
}

func (c *Coordinator) handleGitWorkingDirectory(env eventbus.Envelope) {
	key := c.stableKeyFor(env.RepoID)
	if key == "" {
		return
	}
	branch, _ := env.Payload[PayloadWorktreeBranch].(string)
	if err := c.cache.UpsertBranch(key, branch, c.nowFn()); err != nil {
		log.Printf("cache: upsert branch for %s: %v", key, err)
	}
	origin, ok := env.Payload[PayloadOrigin].(string)
	if ok && origin != "" {
		if err := c.cache.UpsertOrigin(key, origin, c.nowFn()); err != nil {
			log.Printf("cache: upsert origin for %s: %v", key, err)
		}
	}
}

func (c *Coordinator) handleForge(env eventbus.Envelope) {
	key := c.stableKeyFor(env.RepoID)
	if key == "" {
		return
	}
	prCount, _ := env.Payload[PayloadPRCount].(int)
	notificationCount, _ := env.Payload[PayloadNotificationCnt].(int)
	if err := c.cache.UpsertForgeCounts(key, prCount, notificationCount, c.nowFn()); err != nil {
		log.Printf("cache: upsert forge counts for %s: %v", key, err)
	}
}

// handleOriginChanged records the new origin and emits one ScopeChange back
// to the filesystem pipeline (spec.md §4.9) registering the new origin's
// forge scope. No unregister ScopeChange is emitted for the previous origin.
func (c *Coordinator) handleOriginChanged(env eventbus.Envelope) {
	key := c.stableKeyFor(env.RepoID)
	if key == "" {
		return
	}
	origin, _ := env.Payload[PayloadOrigin].(string)
	if err := c.cache.UpsertOrigin(key, origin, c.nowFn()); err != nil {
		log.Printf("cache: upsert origin for %s: %v", key, err)
	}
	c.bus.Publish(eventbus.Envelope{
		Kind:          eventbus.System,
		SystemTopic:   eventbus.TopicScopeChange,
		CorrelationID: env.CorrelationID,
		Source:        "cacheCoordinator",
		RepoID:        env.RepoID,
		WorktreeID:    env.WorktreeID,
		Payload: map[string]any{
			PayloadOrigin:        origin,
			PayloadScopeRegister: true,
		},
	})
}

// handleBranchChanged requests a forge refresh carrying the triggering
// correlation id forward (spec.md §4.9).
func (c *Coordinator) handleBranchChanged(env eventbus.Envelope) {
	key := c.stableKeyFor(env.RepoID)
	if key == "" {
		return
	}
	branch, _ := env.Payload[PayloadWorktreeBranch].(string)
	if err := c.cache.UpsertBranch(key, branch, c.nowFn()); err != nil {
		log.Printf("cache: upsert branch for %s: %v", key, err)
	}
	c.bus.Publish(eventbus.Envelope{
		Kind:          eventbus.Worktree,
		WorktreeTopic: eventbus.TopicForgeRefreshRequested,
		CorrelationID: env.CorrelationID,
		Source:        "cacheCoordinator",
		RepoID:        env.RepoID,
		WorktreeID:    env.WorktreeID,
	})
}

func (c *Coordinator) stableKeyFor(repoID id.ID) string {
	if repoID == id.Nil {
		return ""
	}
	if key, ok := c.repoStableKeys[repoID]; ok {
		return key
	}
	if r := c.store.Repo(repoID); r != nil {
		c.repoStableKeys[repoID] = r.StableKey
		return r.StableKey
	}
	return ""
}

// Enrichment returns the cached enrichment for a repo, if any.
func (c *Coordinator) Enrichment(repoID id.ID) (Enrichment, bool) {
	key := c.stableKeyFor(repoID)
	if key == "" {
		return Enrichment{}, false
	}
	e, ok, err := c.cache.Get(key)
	if err != nil {
		log.Printf("cache: get enrichment for %s: %v", key, err)
		return Enrichment{}, false
	}
	return e, ok
}
