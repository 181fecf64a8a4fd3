package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/id"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	b := New()
	var gotA, gotB []Envelope
	b.Subscribe(func(e Envelope) { gotA = append(gotA, e) })
	b.Subscribe(func(e Envelope) { gotB = append(gotB, e) })

	b.Publish(Envelope{Kind: System, SystemTopic: TopicRepoDiscovered, RepoID: id.ID("r1")})

	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 1)
	assert.Equal(t, id.ID("r1"), gotA[0].RepoID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	var count int
	unsub := b.Subscribe(func(e Envelope) { count++ })
	b.Publish(Envelope{Kind: System})
	unsub()
	b.Publish(Envelope{Kind: System})

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestDeliveryPreservesEmissionOrderPerSource(t *testing.T) {
	b := New()
	var got []WorktreeTopic
	unsub := b.Subscribe(func(e Envelope) { got = append(got, e.WorktreeTopic) })
	defer unsub()

	b.Publish(Envelope{Kind: Worktree, WorktreeTopic: TopicGitWorkingDirectory})
	b.Publish(Envelope{Kind: Worktree, WorktreeTopic: TopicBranchChanged})

	assert.Equal(t, []WorktreeTopic{TopicGitWorkingDirectory, TopicBranchChanged}, got)
}

func TestScopeChangeAndForgeRefreshTopicsCarryPayload(t *testing.T) {
	b := New()
	var got []Envelope
	defer b.Subscribe(func(e Envelope) { got = append(got, e) })()

	corr := id.ID("corr-1")
	b.Publish(Envelope{
		Kind: System, SystemTopic: TopicScopeChange, RepoID: id.ID("r1"),
		Payload: map[string]any{"origin": "git@example.com:a/b.git", "register": true},
	})
	b.Publish(Envelope{
		Kind: Worktree, WorktreeTopic: TopicForgeRefreshRequested, WorktreeID: id.ID("w1"),
		CorrelationID: corr,
	})

	require.Len(t, got, 2)
	assert.Equal(t, TopicScopeChange, got[0].SystemTopic)
	assert.Equal(t, true, got[0].Payload["register"])
	assert.Equal(t, TopicForgeRefreshRequested, got[1].WorktreeTopic)
	assert.Equal(t, corr, got[1].CorrelationID)
}
