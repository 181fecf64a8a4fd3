package fsactor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/eventbus"
	"github.com/tabworks/panecore/id"
)

func TestRegisterThenWriteEmitsGitWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))

	bus := eventbus.New()
	src, err := New(bus)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	src.debounce = 20 * time.Millisecond

	ids := id.NewAllocator()
	worktreeID, repoID := ids.New(), ids.New()
	require.NoError(t, src.Register(worktreeID, repoID, dir))

	gotCh := make(chan eventbus.Envelope, 1)
	bus.Subscribe(func(e eventbus.Envelope) {
		if e.WorktreeTopic == eventbus.TopicGitWorkingDirectory {
			select {
			case gotCh <- e:
			default:
			}
		}
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "some-file.txt"), []byte("hello"), 0o644))

	select {
	case e := <-gotCh:
		assert.Equal(t, worktreeID, e.WorktreeID)
		assert.Equal(t, repoID, e.RepoID)
		assert.Equal(t, "main", e.Payload["branch"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for git working directory envelope")
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	dir := t.TempDir()
	bus := eventbus.New()
	src, err := New(bus)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	src.debounce = 10 * time.Millisecond

	ids := id.NewAllocator()
	worktreeID, repoID := ids.New(), ids.New()
	require.NoError(t, src.Register(worktreeID, repoID, dir))
	src.Unregister(worktreeID)

	got := false
	bus.Subscribe(func(e eventbus.Envelope) { got = true })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, got)
}

func TestReadHeadBranchDetachedReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("deadbeefdeadbeefdeadbeefdeadbeefdeadbeef\n"), 0o644))

	_, ok := readHeadBranch(dir)
	assert.False(t, ok)
}
