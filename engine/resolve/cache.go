package resolve

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glucolog/mealmatch/engine/domain"
)

// DefaultCacheSize bounds the match cache. A session-lifetime map would grow
// without limit in a long-lived process, hence the LRU cap.
const DefaultCacheSize = 512

// MatchCache memoizes accepted catalog identities by normalized query key.
// It stores identity only; per-call quantity and unit are re-applied by the
// caller on every hit. Safe for concurrent use.
type MatchCache struct {
	entries *lru.Cache[string, domain.NormalizedFood]
}

// NewMatchCache creates a cache holding at most size entries.
func NewMatchCache(size int) *MatchCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, _ := lru.New[string, domain.NormalizedFood](size)
	return &MatchCache{entries: entries}
}

// Get returns the cached catalog record for key, if any.
func (c *MatchCache) Get(key string) (domain.NormalizedFood, bool) {
	return c.entries.Get(key)
}

// Set stores an accepted catalog record. Fallback records must never be
// stored: a placeholder is not a catalog identity and would poison future
// lookups for the same text.
func (c *MatchCache) Set(key string, food domain.NormalizedFood) {
	c.entries.Add(key, food)
}

// Len reports the current entry count.
func (c *MatchCache) Len() int { return c.entries.Len() }

// TextKey builds the cache key for a plain text query.
func TextKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// PhotoKey builds the cache key for a vision-detected item. The prefix keeps
// the two paths from colliding on the same words.
func PhotoKey(displayName string) string {
	return "photo:" + strings.ToLower(strings.TrimSpace(displayName))
}
