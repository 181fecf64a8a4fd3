package workspace

import "github.com/tabworks/panecore/id"

// The methods in this file exist solely so the persist package can
// reconstruct a Store from the on-disk schema without reaching into
// unexported fields. They bypass the normal id-allocation path because
// restored entities must keep the identities they were saved with.

// AllRepos returns every repo currently known to the store, in no
// particular order.
func (s *Store) AllRepos() []*Repo {
	out := make([]*Repo, 0, len(s.repos))
	for _, r := range s.repos {
		out = append(out, r)
	}
	return out
}

// RestoreRepo inserts repo and its worktrees verbatim, preserving ids.
func (s *Store) RestoreRepo(repo Repo, worktrees []Worktree) {
	r := repo
	r.Worktrees = nil
	for _, w := range worktrees {
		w := w
		w.RepoID = r.ID
		s.worktrees[w.ID] = &w
		r.Worktrees = append(r.Worktrees, w.ID)
	}
	s.repos[r.ID] = &r
}

// RestorePane inserts p verbatim into the pane pool, preserving its id.
func (s *Store) RestorePane(p *Pane) {
	s.panes[p.ID] = p
}

// RestoreActiveTab sets the active tab pointer without validating that the
// tab is already present — used while decoding, where tabs are appended in
// the same pass.
func (s *Store) RestoreActiveTab(tabID id.ID) {
	s.activeTab = tabID
}
