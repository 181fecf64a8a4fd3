// Package bootconfig loads panecore's own settings — distinct from the
// per-workspace JSON files the persist package owns — via viper, the way
// the teacher's internal/config package does for its TOML settings file.
package bootconfig

import (
	"os"
	"path/filepath"
)

const appName = "panecore"

// Dirs holds the XDG Base Directory paths panecore reads from and writes
// to, following the XDG Base Directory specification the same way the
// teacher's internal/config/xdg.go does.
type Dirs struct {
	ConfigHome string
	DataHome   string
	StateHome  string
}

// ResolveDirs returns the XDG directories for panecore.
func ResolveDirs() (Dirs, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Dirs{}, err
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(homeDir, ".config")
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(homeDir, ".local", "state")
	}

	return Dirs{
		ConfigHome: filepath.Join(configHome, appName),
		DataHome:   filepath.Join(dataHome, appName),
		StateHome:  filepath.Join(stateHome, appName),
	}, nil
}

// ResourceDir returns the PANECORE_RESOURCE_DIR override for locating
// bundled assets outside of a normal install, falling back to the XDG data
// directory.
func ResourceDir() (string, error) {
	if dir := os.Getenv("PANECORE_RESOURCE_DIR"); dir != "" {
		return dir, nil
	}
	dirs, err := ResolveDirs()
	if err != nil {
		return "", err
	}
	return dirs.DataHome, nil
}

// ColorEnabled reports whether ANSI color output should be emitted,
// honoring the NO_COLOR convention (https://no-color.org).
func ColorEnabled() bool {
	return os.Getenv("NO_COLOR") == ""
}
