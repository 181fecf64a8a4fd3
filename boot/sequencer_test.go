package boot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabworks/panecore/bootconfig"
	"github.com/tabworks/panecore/eventbus"
	"github.com/tabworks/panecore/id"
	"github.com/tabworks/panecore/surface"
	"github.com/tabworks/panecore/view"
	"github.com/tabworks/panecore/workspace"
)

func fakeViewFactory(content workspace.Content, paneID id.ID) (view.PaneView, error) {
	return view.PaneView{PaneID: paneID, Kind: view.KindTerminal, Handle: "fake"}, nil
}

func fakeSurfaceFactory(cfg surface.Config, meta surface.Metadata) (any, error) {
	return "handle", nil
}

func TestRunExecutesAllTenStepsAndReturnsUsableResult(t *testing.T) {
	dir := t.TempDir()
	cfg := bootconfig.Config{
		WorkspaceRootDir:  dir,
		CacheDBPath:       ":memory:",
		UndoStackDepth:    10,
		SurfaceTTLSeconds: 300,
	}

	seq := New(
		id.NewAllocator(), cfg, "test-workspace",
		fakeViewFactory, fakeSurfaceFactory,
		func(p *workspace.Pane) surface.Config { return surface.Config{} },
		Hooks{}, func() int64 { return 0 },
	)

	res, err := seq.Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(res.Shutdown)

	assert.NotNil(t, res.Store)
	assert.NotNil(t, res.Views)
	assert.NotNil(t, res.Surfaces)
	assert.NotNil(t, res.Runtimes)
	assert.NotNil(t, res.Bus)
	assert.NotNil(t, res.Coordinator)
	assert.NotNil(t, res.CacheStore)
	assert.NotNil(t, res.Cache)
	assert.NotNil(t, res.FSSource)
}

func TestRunInvokesConfiguredGitProjectorHook(t *testing.T) {
	dir := t.TempDir()
	cfg := bootconfig.Config{WorkspaceRootDir: dir, CacheDBPath: ":memory:", SurfaceTTLSeconds: 60}

	called := false
	hooks := Hooks{
		StartGitProjector: func(ctx context.Context, bus *eventbus.Bus) (func(), error) {
			called = true
			return nil, nil
		},
	}

	seq := New(
		id.NewAllocator(), cfg, "test-workspace-2",
		fakeViewFactory, fakeSurfaceFactory,
		func(p *workspace.Pane) surface.Config { return surface.Config{} },
		hooks, func() int64 { return 0 },
	)
	res, err := seq.Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(res.Shutdown)
	assert.True(t, called)
}
