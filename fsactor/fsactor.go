// Package fsactor implements the filesystem discovery collaborator named in
// spec.md §4.9/§6 as FilesystemSource: it watches registered worktree
// roots for topology changes and emits envelopes onto the EventBus. It
// runs on its own executor, independent of the UI executor (spec.md §5) —
// the coordinator and CacheCoordinator only ever see its output as
// immutable envelopes crossing the bus.
//
// Debouncing is grounded on the teacher's database watcher
// (internal/watcher/watcher.go), generalized from one global timer to one
// timer per watched worktree so that a burst of changes in one worktree
// never delays delivery for another.
package fsactor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tabworks/panecore/eventbus"
	"github.com/tabworks/panecore/id"
)

const defaultDebounce = 150 * time.Millisecond

type watchedWorktree struct {
	worktreeID id.ID
	repoID     id.ID
	rootPath   string
	isActive   bool
	timer      *time.Timer
}

// Source is the fsnotify-backed FilesystemSource.
type Source struct {
	bus      *eventbus.Bus
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu                 sync.Mutex
	worktrees          map[id.ID]*watchedWorktree
	pathToWorktree     map[string]id.ID
	activePaneWorktree id.ID

	done chan struct{}
}

// New creates a FilesystemSource publishing onto bus. Call Close when done.
func New(bus *eventbus.Bus) (*Source, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsactor: create fsnotify watcher: %w", err)
	}
	s := &Source{
		bus:            bus,
		watcher:        w,
		debounce:       defaultDebounce,
		worktrees:      make(map[id.ID]*watchedWorktree),
		pathToWorktree: make(map[string]id.ID),
		done:           make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Register starts watching rootPath on behalf of worktreeID, belonging to
// repoID.
func (s *Source) Register(worktreeID, repoID id.ID, rootPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.worktrees[worktreeID]; exists {
		return nil
	}
	if err := s.watcher.Add(rootPath); err != nil {
		return fmt.Errorf("fsactor: watch %s: %w", rootPath, err)
	}
	s.worktrees[worktreeID] = &watchedWorktree{worktreeID: worktreeID, repoID: repoID, rootPath: rootPath}
	s.pathToWorktree[rootPath] = worktreeID
	return nil
}

// Unregister stops watching the worktree's root.
func (s *Source) Unregister(worktreeID id.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wt, ok := s.worktrees[worktreeID]
	if !ok {
		return
	}
	if wt.timer != nil {
		wt.timer.Stop()
	}
	if err := s.watcher.Remove(wt.rootPath); err != nil {
		log.Printf("fsactor: unwatch %s: %v", wt.rootPath, err)
	}
	delete(s.pathToWorktree, wt.rootPath)
	delete(s.worktrees, worktreeID)
	if s.activePaneWorktree == worktreeID {
		s.activePaneWorktree = id.Nil
	}
}

// SetActivity records on the watched worktree whether worktreeID is
// currently active in the app. Emitted envelopes carry only the branch;
// the activity flag is not included in their payload.
func (s *Source) SetActivity(worktreeID id.ID, isActiveInApp bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wt, ok := s.worktrees[worktreeID]; ok {
		wt.isActive = isActiveInApp
	}
}

// SetActivePaneWorktree records which worktree the focused pane belongs to,
// or id.Nil for none.
func (s *Source) SetActivePaneWorktree(worktreeID id.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activePaneWorktree = worktreeID
}

// Close stops the watcher and its background goroutine.
func (s *Source) Close() error {
	close(s.done)
	return s.watcher.Close()
}

func (s *Source) loop() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("fsactor: watcher error: %v", err)
		case <-s.done:
			return
		}
	}
}

func (s *Source) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	s.mu.Lock()
	dir := filepath.Dir(ev.Name)
	worktreeID, ok := s.pathToWorktree[dir]
	if !ok {
		// Fall back to exact match — some watched roots are files, not dirs.
		worktreeID, ok = s.pathToWorktree[ev.Name]
	}
	if !ok {
		s.mu.Unlock()
		return
	}
	wt := s.worktrees[worktreeID]
	if wt.timer != nil {
		wt.timer.Stop()
	}
	wt.timer = time.AfterFunc(s.debounce, func() { s.publishChange(worktreeID) })
	s.mu.Unlock()
}

func (s *Source) publishChange(worktreeID id.ID) {
	s.mu.Lock()
	wt, ok := s.worktrees[worktreeID]
	s.mu.Unlock()
	if !ok {
		return
	}

	branch, _ := readHeadBranch(wt.rootPath)
	s.bus.Publish(eventbus.Envelope{
		Kind:          eventbus.Worktree,
		WorktreeTopic: eventbus.TopicGitWorkingDirectory,
		Source:        "fsactor",
		RepoID:        wt.repoID,
		WorktreeID:    wt.worktreeID,
		Payload: map[string]any{
			"branch": branch,
		},
	})
}

// readHeadBranch reads the symbolic branch name out of .git/HEAD. Best
// effort: a detached HEAD or missing .git directory returns ("", false)
// rather than an error, since this runs opportunistically off a debounce
// timer.
func readHeadBranch(rootPath string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(rootPath, ".git", "HEAD"))
	if err != nil {
		return "", false
	}
	line := strings.TrimSpace(string(data))
	const prefix = "ref: refs/heads/"
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimPrefix(line, prefix), true
}
