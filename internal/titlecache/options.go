package titlecache

import (
	"log/slog"
	"time"

	"animebot/internal/metrics"
	"animebot/internal/notifications"
)

const (
	// DefaultTopN is the number of popular titles kept in the cache.
	DefaultTopN = 500
	// DefaultPerPage is the AniList page size used while refreshing.
	DefaultPerPage = 50
	// DefaultFreshness is how long a populated cache is served without refreshing.
	DefaultFreshness = 10 * time.Minute
	// DefaultPageDelay is the pause after every successfully fetched page.
	DefaultPageDelay = 200 * time.Millisecond
	// DefaultSuggestionLimit caps the number of autocomplete suggestions.
	DefaultSuggestionLimit = 25
)

// Option configures a Cache.
type Option func(*Cache)

// WithTopN overrides the number of titles kept.
func WithTopN(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.topN = n
		}
	}
}

// WithPerPage overrides the page size requested from the source.
func WithPerPage(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithFreshness overrides the freshness window.
func WithFreshness(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.freshness = d
		}
	}
}

// WithPageDelay overrides the inter-page delay. Zero disables it.
func WithPageDelay(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.pageDelay = d
		}
	}
}

// WithSuggestionLimit overrides the maximum number of suggestions returned.
func WithSuggestionLimit(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.suggestionLimit = n
		}
	}
}

// WithSnapshotStore persists successful refreshes and seeds the cache from
// the last stored snapshot.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(c *Cache) {
		c.store = store
	}
}

// WithNotifier sets the service alerted when a refresh yields no titles.
func WithNotifier(svc notifications.Service) Option {
	return func(c *Cache) {
		if svc != nil {
			c.notifier = svc
		}
	}
}

// WithMetrics records refresh and detail metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.baseLogger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
