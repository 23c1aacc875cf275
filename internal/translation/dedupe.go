package translation

import (
	"strings"
	"sync"
	"time"
)

// RequestCache is the bounded recent-request history used to suppress
// duplicate and circular translations when the upstream transport
// redelivers events. Keys are (normalized text prefix, source, target);
// values are dispatch times.
//
// The cache is shared across concurrent dispatches and guarded by a mutex.
// Stale entries are pruned lazily on insert; there is no background timer.
type RequestCache struct {
	mu        sync.Mutex
	window    time.Duration // suppression horizon for identical requests
	retention time.Duration // how long keys are kept before lazy pruning
	entries   map[string]time.Time

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewRequestCache creates a cache with the given suppression window and
// retention horizon. Retention should not be shorter than the window.
func NewRequestCache(window, retention time.Duration) *RequestCache {
	if retention < window {
		retention = window
	}
	return &RequestCache{
		window:    window,
		retention: retention,
		entries:   make(map[string]time.Time),
		now:       time.Now,
	}
}

// Suppress reports whether an identical request was dispatched within the
// window. When it was not, the request is recorded as dispatched now.
// A suppressed request does not refresh its entry, so a steady trickle of
// redeliveries cannot extend suppression forever.
func (c *RequestCache) Suppress(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.prune(now)

	if at, ok := c.entries[key]; ok && now.Sub(at) < c.window {
		return true
	}
	c.entries[key] = now
	return false
}

// Len returns the number of retained keys.
func (c *RequestCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RequestCache) prune(now time.Time) {
	for key, at := range c.entries {
		if now.Sub(at) > c.retention {
			delete(c.entries, key)
		}
	}
}

// RequestKey builds the dedup key for one translation request. The text is
// normalized (lowercased, whitespace collapsed) and truncated to prefixLen
// runes so trailing punctuation or streaming tail differences do not defeat
// the guard.
func RequestKey(text, sourceCode, targetCode string, prefixLen int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	runes := []rune(normalized)
	if prefixLen > 0 && len(runes) > prefixLen {
		normalized = string(runes[:prefixLen])
	}
	return normalized + "|" + sourceCode + "|" + targetCode
}
