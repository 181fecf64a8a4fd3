package bootconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is boot-time configuration for the pane orchestration core: where
// workspace state lives, how deep its undo history goes, how long a
// detached surface survives on the undo-close stack, and the debounce
// windows background actors use.
type Config struct {
	WorkspaceRootDir  string        `mapstructure:"workspace_root_dir"`
	SnapshotDir       string        `mapstructure:"snapshot_dir"`
	CacheDBPath       string        `mapstructure:"cache_db_path"`
	UndoStackDepth    int           `mapstructure:"undo_stack_depth"`
	SurfaceTTLSeconds int           `mapstructure:"surface_ttl_seconds"`
	FilesystemDebounce time.Duration `mapstructure:"filesystem_debounce"`
	TracingEnabled    bool          `mapstructure:"tracing_enabled"`
}

// DefaultConfig returns panecore's built-in defaults, used both as the
// fallback when no config file exists and as viper's default layer.
func DefaultConfig(dirs Dirs) Config {
	return Config{
		WorkspaceRootDir:   dirs.DataHome,
		SnapshotDir:        filepath.Join(dirs.DataHome, "snapshots"),
		CacheDBPath:        filepath.Join(dirs.DataHome, "cache.sqlite"),
		UndoStackDepth:     10,
		SurfaceTTLSeconds:  300,
		FilesystemDebounce: 150 * time.Millisecond,
		TracingEnabled:     false,
	}
}

// Load reads panecore's config file (if present) layered over defaults,
// following the teacher's viper-based loader
// (internal/infrastructure/config/loader.go): set defaults, add search
// paths, read environment overrides, then unmarshal.
func Load() (Config, error) {
	dirs, err := ResolveDirs()
	if err != nil {
		return Config{}, fmt.Errorf("bootconfig: resolve xdg dirs: %w", err)
	}
	defaults := DefaultConfig(dirs)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dirs.ConfigHome)
	v.AddConfigPath(".")

	v.SetEnvPrefix("PANECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("workspace_root_dir", defaults.WorkspaceRootDir)
	v.SetDefault("snapshot_dir", defaults.SnapshotDir)
	v.SetDefault("cache_db_path", defaults.CacheDBPath)
	v.SetDefault("undo_stack_depth", defaults.UndoStackDepth)
	v.SetDefault("surface_ttl_seconds", defaults.SurfaceTTLSeconds)
	v.SetDefault("filesystem_debounce", defaults.FilesystemDebounce)
	v.SetDefault("tracing_enabled", defaults.TracingEnabled)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("bootconfig: read config file: %w", err)
		}
		// No config file on disk — defaults plus env overrides stand as-is.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("bootconfig: unmarshal config: %w", err)
	}
	return cfg, nil
}
