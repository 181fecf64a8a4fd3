package persist

import (
	"os"
	"path/filepath"

	"github.com/tabworks/panecore/workspace"
)

// Persistor implements load/save of the three workspace-scoped files named
// in spec.md §6. The canonical workspace file and the UI file are plain
// JSON written with the atomic temp-then-rename contract; the cache file is
// exposed here only as an on-demand export — CacheCoordinator's live
// read/write path is sqlite-backed (see the cache package), so SaveCache
// writes whatever CacheFile the caller assembles into the documented
// on-disk shape.
type Persistor struct {
	dir         string
	workspaceID string
}

// New returns a Persistor rooted at dir for the given workspace id.
func New(dir, workspaceID string) *Persistor {
	return &Persistor{dir: dir, workspaceID: workspaceID}
}

func (p *Persistor) workspacePath() string { return filepath.Join(p.dir, p.workspaceID+".json") }
func (p *Persistor) cachePath() string     { return filepath.Join(p.dir, p.workspaceID+".cache.json") }
func (p *Persistor) uiPath() string        { return filepath.Join(p.dir, p.workspaceID+".ui.json") }

// SaveWorkspace runs s's pre-persist hook, serializes s to the canonical
// workspace file, and clears s's dirty flag once the write succeeds.
func (p *Persistor) SaveWorkspace(s *workspace.Store) error {
	s.RunPrePersistHook()
	if err := WriteAtomic(p.workspacePath(), EncodeWorkspace(p.workspaceID, s)); err != nil {
		return err
	}
	s.ClearDirty()
	return nil
}

// LoadWorkspace populates s from the canonical workspace file. A missing
// file is not an error — s is left empty, matching first-launch behavior.
func (p *Persistor) LoadWorkspace(s *workspace.Store) error {
	var file WorkspaceFile
	if err := ReadInto(p.workspacePath(), &file); err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}
	return DecodeWorkspace(file, s)
}

// SaveCache writes an export snapshot of the cache file.
func (p *Persistor) SaveCache(file CacheFile) error {
	return WriteAtomic(p.cachePath(), file)
}

// LoadCache reads the cache file export, if present.
func (p *Persistor) LoadCache() (CacheFile, error) {
	var file CacheFile
	err := ReadInto(p.cachePath(), &file)
	if err != nil && isNotExist(err) {
		return CacheFile{}, nil
	}
	return file, err
}

// SaveUI writes the UI preferences file.
func (p *Persistor) SaveUI(file UIFile) error {
	return WriteAtomic(p.uiPath(), file)
}

// LoadUI reads the UI preferences file, if present.
func (p *Persistor) LoadUI() (UIFile, error) {
	var file UIFile
	err := ReadInto(p.uiPath(), &file)
	if err != nil && isNotExist(err) {
		return UIFile{}, nil
	}
	return file, err
}

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}
