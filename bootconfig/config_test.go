package bootconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigFillsDerivedPaths(t *testing.T) {
	dirs := Dirs{DataHome: "/home/dev/.local/share/panecore"}
	cfg := DefaultConfig(dirs)

	assert.Equal(t, "/home/dev/.local/share/panecore", cfg.WorkspaceRootDir)
	assert.Equal(t, 10, cfg.UndoStackDepth)
	assert.Equal(t, 300, cfg.SurfaceTTLSeconds)
	assert.False(t, cfg.TracingEnabled)
}

func TestColorEnabledHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.True(t, ColorEnabled())

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled())
}

func TestResourceDirHonorsOverride(t *testing.T) {
	t.Setenv("PANECORE_RESOURCE_DIR", "/opt/panecore/resources")
	dir, err := ResourceDir()
	assert.NoError(t, err)
	assert.Equal(t, "/opt/panecore/resources", dir)
}
