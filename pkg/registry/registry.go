package registry

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bootpe/pluginmart/pkg/observability"
	"github.com/bootpe/pluginmart/pkg/plugin"
	"github.com/bootpe/pluginmart/pkg/version"
)

// Status describes how a remote catalog entry relates to the local install.
type Status string

const (
	// StatusNotInstalled means no enabled local plugin shares the identity.
	StatusNotInstalled Status = "not_installed"
	// StatusInstalled means the local version is equal to or newer than the
	// catalog version.
	StatusInstalled Status = "installed"
	// StatusUpdateAvailable means the local version is older than the
	// catalog version.
	StatusUpdateAvailable Status = "update_available"
)

const searchCacheSize = 64

// Registry is the shared in-memory store of catalog and local snapshots.
type Registry struct {
	metrics *observability.Metrics

	mu         sync.RWMutex
	categories []plugin.Category
	enabled    []plugin.Plugin
	disabled   []plugin.Plugin
	byIdentity map[string]plugin.Plugin

	searchCache *lru.Cache[string, []plugin.Plugin]
}

// New creates an empty registry. Metrics must be non-nil; search cache
// hits and misses are counted on it.
func New(metrics *observability.Metrics) *Registry {
	cache, _ := lru.New[string, []plugin.Plugin](searchCacheSize)
	return &Registry{
		metrics:     metrics,
		byIdentity:  make(map[string]plugin.Plugin),
		searchCache: cache,
	}
}

// SetCatalog replaces the whole catalog. Prior category lists are
// discarded, never merged.
func (r *Registry) SetCatalog(categories []plugin.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = categories
	r.searchCache.Purge()
}

// SetLocal replaces both local snapshots and rebuilds the identity index
// from the enabled list.
func (r *Registry) SetLocal(enabled, disabled []plugin.Plugin) {
	index := make(map[string]plugin.Plugin, len(enabled))
	for _, p := range enabled {
		index[p.ID()] = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
	r.disabled = disabled
	r.byIdentity = index
	r.searchCache.Purge()
}

// Categories returns a copy of the current catalog.
func (r *Registry) Categories() []plugin.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plugin.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// EnabledPlugins returns a copy of the enabled snapshot.
func (r *Registry) EnabledPlugins() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]plugin.Plugin(nil), r.enabled...)
}

// DisabledPlugins returns a copy of the disabled snapshot.
func (r *Registry) DisabledPlugins() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]plugin.Plugin(nil), r.disabled...)
}

// EnabledByID looks up an enabled local plugin by identity.
func (r *Registry) EnabledByID(id string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byIdentity[id]
	return p, ok
}

// FindRemote looks up a catalog entry by identity, in catalog order.
func (r *Registry) FindRemote(id string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cat := range r.categories {
		for _, p := range cat.List {
			if p.ID() == id {
				return p, true
			}
		}
	}
	return plugin.Plugin{}, false
}

// Search returns catalog entries whose name, author, description or
// version contains the keyword, case-insensitively. Results keep catalog
// order and are deduplicated; there is no ranking.
func (r *Registry) Search(keyword string) []plugin.Plugin {
	key := strings.ToLower(keyword)

	// Cache lookups and inserts stay under the read lock so a concurrent
	// snapshot replacement (which purges under the write lock) can never
	// interleave with a stale insert.
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cached, ok := r.searchCache.Get(key); ok {
		r.metrics.SearchCacheHitsTotal.Inc()
		return append([]plugin.Plugin(nil), cached...)
	}
	r.metrics.SearchCacheMissesTotal.Inc()

	var results []plugin.Plugin
	for _, cat := range r.categories {
		for _, p := range cat.List {
			haystack := strings.ToLower(p.Name + " " + p.Author + " " + p.Describe + " " + p.Version)
			if strings.Contains(haystack, key) {
				results = append(results, p)
			}
		}
	}

	results = plugin.Dedup(results)
	r.searchCache.Add(key, results)
	return append([]plugin.Plugin(nil), results...)
}

// StatusOf reports how a remote catalog entry relates to the enabled local
// install sharing its identity.
func (r *Registry) StatusOf(remote plugin.Plugin) Status {
	local, ok := r.EnabledByID(remote.ID())
	if !ok {
		return StatusNotInstalled
	}
	if version.Compare(local.Version, remote.Version) < 0 {
		return StatusUpdateAvailable
	}
	return StatusInstalled
}
