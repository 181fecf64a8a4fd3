// Package cache implements the derived, rebuildable repo/worktree
// enrichment store described in spec.md §4.9: branch, origin, and
// forge-provided PR/notification counts. Unlike the canonical workspace and
// UI files (spec.md §6), this data is never byte-exact persisted JSON — it
// is cheaper to recompute than to version, so it lives in a local SQLite
// database instead, grounded on the teacher's terminal-history search index
// (apps/texelterm/parser/search_index.go).
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Enrichment is the derived, forge-sourced view of a single repo.
type Enrichment struct {
	RepoStableKey     string
	Branch            string
	Origin            string
	PRCount           int
	NotificationCount int
}

const schema = `
CREATE TABLE IF NOT EXISTS enrichment (
    repo_stable_key     TEXT PRIMARY KEY,
    branch              TEXT NOT NULL DEFAULT '',
    origin              TEXT NOT NULL DEFAULT '',
    pr_count            INTEGER NOT NULL DEFAULT 0,
    notification_count  INTEGER NOT NULL DEFAULT 0,
    updated_at          INTEGER NOT NULL DEFAULT 0
);
`

// Store is the sqlite-backed enrichment cache. Safe for concurrent use: the
// CacheCoordinator writes from the UI executor, but readers (status bar
// queries, boot-time prefetch) may run from elsewhere.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the enrichment database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("cache: create directory: %w", err)
		}
	}

	dsn := dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=cache_size(-2000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertBranch records a worktree's current branch, creating the row if
// absent.
func (s *Store) UpsertBranch(repoStableKey, branch string, updatedAtUnix int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO enrichment (repo_stable_key, branch, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(repo_stable_key) DO UPDATE SET branch = excluded.branch, updated_at = excluded.updated_at
	`, repoStableKey, branch, updatedAtUnix)
	return err
}

// UpsertOrigin records a worktree's remote origin URL.
func (s *Store) UpsertOrigin(repoStableKey, origin string, updatedAtUnix int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO enrichment (repo_stable_key, origin, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(repo_stable_key) DO UPDATE SET origin = excluded.origin, updated_at = excluded.updated_at
	`, repoStableKey, origin, updatedAtUnix)
	return err
}

// UpsertForgeCounts records a forge actor's latest PR/notification counts.
func (s *Store) UpsertForgeCounts(repoStableKey string, prCount, notificationCount int, updatedAtUnix int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO enrichment (repo_stable_key, pr_count, notification_count, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(repo_stable_key) DO UPDATE SET pr_count = excluded.pr_count, notification_count = excluded.notification_count, updated_at = excluded.updated_at
	`, repoStableKey, prCount, notificationCount, updatedAtUnix)
	return err
}

// Get returns the enrichment row for repoStableKey, if any.
func (s *Store) Get(repoStableKey string) (Enrichment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e Enrichment
	e.RepoStableKey = repoStableKey
	err := s.db.QueryRow(`
		SELECT branch, origin, pr_count, notification_count FROM enrichment WHERE repo_stable_key = ?
	`, repoStableKey).Scan(&e.Branch, &e.Origin, &e.PRCount, &e.NotificationCount)
	if err == sql.ErrNoRows {
		return Enrichment{}, false, nil
	}
	if err != nil {
		return Enrichment{}, false, err
	}
	return e, true, nil
}

// Delete removes a repo's enrichment row, e.g. when the repo is removed
// from topology.
func (s *Store) Delete(repoStableKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM enrichment WHERE repo_stable_key = ?`, repoStableKey)
	return err
}
