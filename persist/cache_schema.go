package persist

// CacheFile is the derived-enrichment cache file, `{workspaceId}.cache.json`.
type CacheFile struct {
	RepoEnrichmentByRepoID       map[string]RepoEnrichment     `json:"repoEnrichmentByRepoId"`
	WorktreeEnrichmentByWorktreeID map[string]WorktreeEnrichment `json:"worktreeEnrichmentByWorktreeId"`
	PullRequestCountByWorktreeID map[string]int                `json:"pullRequestCountByWorktreeId"`
	NotificationCountByWorktreeID map[string]int               `json:"notificationCountByWorktreeId"`
	SourceRevision               uint64                        `json:"sourceRevision"`
	LastRebuiltAt                string                         `json:"lastRebuiltAt"`
}

type RepoEnrichment struct {
	Origin string `json:"origin"`
}

type WorktreeEnrichment struct {
	Branch string `json:"branch"`
	Origin string `json:"origin"`
}

// UIFile is the UI-local preferences file, `{workspaceId}.ui.json`.
type UIFile struct {
	ExpandedGroups  []string          `json:"expandedGroups"`
	CheckoutColors  map[string]string `json:"checkoutColors"`
	FilterText      string            `json:"filterText"`
	IsFilterVisible bool              `json:"isFilterVisible"`
}
