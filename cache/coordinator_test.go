package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/eventbus"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/workspace"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *eventbus.Bus, *workspace.Store) {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := eventbus.New()
	ws := workspace.New(id.NewAllocator())
	co := New(bus, ws, store, func() int64 { return 42 })
	co.Start()
	t.Cleanup(co.Stop)
	return co, bus, ws
}

func TestRepoDiscoveredMirrorsIntoCanonicalStore(t *testing.T) {
	_, bus, ws := newTestCoordinator(t)

	bus.Publish(eventbus.Envelope{
		Kind:        eventbus.System,
		SystemTopic: eventbus.TopicRepoDiscovered,
		Payload: map[string]any{
			PayloadName:      "panecore",
			PayloadRepoPath:  "/home/dev/panecore",
			PayloadStableKey: "github.com/tabworks/panecore",
		},
	})

	repos := ws.AllRepos()
	require.Len(t, repos, 1)
	assert.Equal(t, "panecore", repos[0].Name)
	assert.Equal(t, workspace.Available, repos[0].Availability)
}

func TestGitWorkingDirectoryPopulatesEnrichment(t *testing.T) {
	co, bus, ws := newTestCoordinator(t)

	r := ws.AddRepo("panecore", "/home/dev/panecore", "stable-key")

	bus.Publish(eventbus.Envelope{
		Kind:          eventbus.Worktree,
		WorktreeTopic: eventbus.TopicGitWorkingDirectory,
		RepoID:        r.ID,
		Payload: map[string]any{
			PayloadWorktreeBranch: "main",
			PayloadOrigin:         "git@github.com:tabworks/panecore.git",
		},
	})

	e, ok := co.Enrichment(r.ID)
	require.True(t, ok)
	assert.Equal(t, "main", e.Branch)
	assert.Equal(t, "git@github.com:tabworks/panecore.git", e.Origin)
}

func TestForgeEventPopulatesCounts(t *testing.T) {
	co, bus, ws := newTestCoordinator(t)
	r := ws.AddRepo("panecore", "/home/dev/panecore", "stable-key")

	bus.Publish(eventbus.Envelope{
		Kind:          eventbus.Worktree,
		WorktreeTopic: eventbus.TopicForge,
		RepoID:        r.ID,
		Payload: map[string]any{
			PayloadPRCount:         3,
			PayloadNotificationCnt: 7,
		},
	})

	e, ok := co.Enrichment(r.ID)
	require.True(t, ok)
	assert.Equal(t, 3, e.PRCount)
	assert.Equal(t, 7, e.NotificationCount)
}

func TestOriginChangedEmitsScopeChange(t *testing.T) {
	_, bus, ws := newTestCoordinator(t)
	r := ws.AddRepo("panecore", "/home/dev/panecore", "stable-key")

	var got []eventbus.Envelope
	bus.Subscribe(func(e eventbus.Envelope) {
		if e.SystemTopic == eventbus.TopicScopeChange {
			got = append(got, e)
		}
	})

	bus.Publish(eventbus.Envelope{
		Kind:          eventbus.Worktree,
		WorktreeTopic: eventbus.TopicOriginChanged,
		RepoID:        r.ID,
		CorrelationID: id.NewAllocator().New(),
		Payload: map[string]any{
			PayloadOrigin: "git@github.com:tabworks/panecore-fork.git",
		},
	})

	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].RepoID)
	assert.Equal(t, true, got[0].Payload[PayloadScopeRegister])
}

func TestBranchChangedRequestsForgeRefreshWithCorrelationID(t *testing.T) {
	_, bus, ws := newTestCoordinator(t)
	r := ws.AddRepo("panecore", "/home/dev/panecore", "stable-key")
	corrID := id.NewAllocator().New()

	var got []eventbus.Envelope
	bus.Subscribe(func(e eventbus.Envelope) {
		if e.WorktreeTopic == eventbus.TopicForgeRefreshRequested {
			got = append(got, e)
		}
	})

	bus.Publish(eventbus.Envelope{
		Kind:          eventbus.Worktree,
		WorktreeTopic: eventbus.TopicBranchChanged,
		RepoID:        r.ID,
		CorrelationID: corrID,
		Payload: map[string]any{
			PayloadWorktreeBranch: "feature/x",
		},
	})

	require.Len(t, got, 1)
	assert.Equal(t, corrID, got[0].CorrelationID)
}

func TestRepoRemovedMarksUnavailableAndDropsEnrichment(t *testing.T) {
	co, bus, ws := newTestCoordinator(t)
	r := ws.AddRepo("panecore", "/home/dev/panecore", "stable-key")
	bus.Publish(eventbus.Envelope{
		Kind:          eventbus.Worktree,
		WorktreeTopic: eventbus.TopicForge,
		RepoID:        r.ID,
		Payload:       map[string]any{PayloadPRCount: 1, PayloadNotificationCnt: 1},
	})

	bus.Publish(eventbus.Envelope{
		Kind:        eventbus.System,
		SystemTopic: eventbus.TopicRepoRemoved,
		RepoID:      r.ID,
	})

	assert.Equal(t, workspace.Unavailable, ws.Repo(r.ID).Availability)
	_, ok := co.Enrichment(r.ID)
	assert.False(t, ok)
}
