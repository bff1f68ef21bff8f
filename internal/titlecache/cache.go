package titlecache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"animebot/internal/anilist"
	"animebot/internal/logging"
	"animebot/internal/metrics"
	"animebot/internal/notifications"
	"animebot/internal/snapshot"
)

// SnapshotStore persists the most recent successful refresh.
type SnapshotStore interface {
	Load(ctx context.Context) (snapshot.Snapshot, error)
	Save(ctx context.Context, snap snapshot.Snapshot) error
}

// Stats is a point-in-time view of the cache for status surfaces.
type Stats struct {
	Titles              int       `json:"titles"`
	LastRefreshed       time.Time `json:"last_refreshed"`
	Fresh               bool      `json:"fresh"`
	LastAttempt         time.Time `json:"last_attempt"`
	LastResult          string    `json:"last_result,omitempty"`
	LastPages           int       `json:"last_pages"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	RestoredFromDisk    bool      `json:"restored_from_disk"`
}

// Cache holds the most popular anime titles and refreshes them from AniList
// when they are missing or older than the freshness window.
type Cache struct {
	source     anilist.Source
	store      SnapshotStore
	notifier   notifications.Service
	metrics    *metrics.Metrics
	baseLogger *slog.Logger
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	topN            int
	perPage         int
	freshness       time.Duration
	pageDelay       time.Duration
	suggestionLimit int

	// refreshMu serializes refreshes; mu guards the fields below it.
	refreshMu sync.Mutex
	// lockWait runs just before a caller blocks on refreshMu. Tests only.
	lockWait func()

	mu            sync.RWMutex
	titles        []string
	lastRefreshed time.Time
	lastAttempt   time.Time
	lastResult    string
	lastPages     int
	failures      int
	restored      bool

	closeOnce sync.Once
	closeErr  error
}

// New builds a cache over source. When a snapshot store is configured the
// stored titles are loaded immediately.
func New(source anilist.Source, opts ...Option) *Cache {
	c := &Cache{
		source:          source,
		notifier:        notifications.NewNoop(),
		baseLogger:      logging.NewNop(),
		tracer:          otel.Tracer("animebot/titlecache"),
		now:             time.Now,
		topN:            DefaultTopN,
		perPage:         DefaultPerPage,
		freshness:       DefaultFreshness,
		pageDelay:       DefaultPageDelay,
		suggestionLimit: DefaultSuggestionLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.baseLogger, "titlecache")
	c.restore(context.Background())
	return c
}

// Pages returns the number of pages a full refresh requests.
func (c *Cache) Pages() int {
	return (c.topN + c.perPage - 1) / c.perPage
}

// RefreshIfStale refetches the popular title list when the cache is empty or
// older than the freshness window. It never fails: a refresh that collects no
// titles leaves the previous list in place, and a refresh whose ctx is
// cancelled part way commits nothing.
func (c *Cache) RefreshIfStale(ctx context.Context) {
	if c.lockWait != nil {
		c.lockWait()
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.isFresh() {
		c.metrics.RecordFreshHit()
		return
	}
	c.refresh(ctx)
}

func (c *Cache) isFresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.titles) > 0 && c.now().Sub(c.lastRefreshed) < c.freshness
}

func (c *Cache) refresh(ctx context.Context) {
	logger := logging.WithContext(ctx, c.logger)
	ctx, span := c.tracer.Start(ctx, "titlecache.refresh", trace.WithAttributes(
		attribute.Int("titlecache.top_n", c.topN),
		attribute.Int("titlecache.per_page", c.perPage),
	))
	defer span.End()

	started := c.now()
	collected, pages, complete := c.collect(ctx, logger)
	elapsed := c.now().Sub(started)
	span.SetAttributes(
		attribute.Int("titlecache.pages", pages),
		attribute.Int("titlecache.collected", len(collected)),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		logger.Debug("refresh cancelled",
			logging.Int("pages", pages),
			logging.Int("discarded", len(collected)),
			logging.Error(err),
		)
		return
	}
	if len(collected) == 0 {
		c.recordFailure(ctx, logger, started, pages, elapsed)
		return
	}

	if len(collected) > c.topN {
		collected = collected[:c.topN]
	}
	refreshedAt := c.now()
	result := metrics.RefreshSuccess
	if !complete {
		result = metrics.RefreshPartial
	}

	c.mu.Lock()
	recovered := c.failures > 0
	c.titles = collected
	c.lastRefreshed = refreshedAt
	c.lastAttempt = started
	c.lastResult = result
	c.lastPages = pages
	c.failures = 0
	c.restored = false
	c.mu.Unlock()

	c.metrics.RecordRefresh(result, elapsed)
	c.metrics.SetCachedTitles(len(collected))
	logger.Info("title cache refreshed",
		logging.Int("titles", len(collected)),
		logging.Int("pages", pages),
		logging.String("result", result),
		logging.Duration("elapsed", elapsed),
	)

	c.persist(ctx, logger, snapshot.Snapshot{Titles: collected, RefreshedAt: refreshedAt})
	if recovered {
		if err := c.notifier.NotifyRefreshRecovered(context.WithoutCancel(ctx), len(collected)); err != nil {
			logger.Debug("refresh recovery notification failed", logging.Error(err))
		}
	}
}

// collect pages through the popularity listing until topN titles are gathered,
// a page fails, or a page comes back empty. complete is false when paging
// stopped early.
func (c *Cache) collect(ctx context.Context, logger *slog.Logger) (titles []string, pages int, complete bool) {
	titles = make([]string, 0, c.topN)
	totalPages := c.Pages()
	for page := 1; page <= totalPages; page++ {
		media, err := c.source.PopularPage(ctx, page, c.perPage)
		if err != nil {
			logging.WarnWithContext(logger, "anilist page fetch failed", "page_fetch_failed",
				logging.Int("page", page),
				logging.Int("collected", len(titles)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check AniList availability and rate limits"),
				logging.String(logging.FieldImpact, "refresh keeps titles gathered so far"),
			)
			return titles, pages, false
		}
		pageTitles := preferredTitles(media)
		if len(pageTitles) == 0 {
			logger.Debug("anilist page returned no titles", logging.Int("page", page))
			return titles, pages, false
		}
		titles = append(titles, pageTitles...)
		pages++
		c.metrics.RecordPage()

		if err := c.pause(ctx); err != nil {
			logger.Debug("refresh interrupted", logging.Int("page", page), logging.Error(err))
			return titles, pages, false
		}
		if len(titles) >= c.topN {
			return titles, pages, true
		}
	}
	return titles, pages, true
}

func (c *Cache) pause(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.pageDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func preferredTitles(media []anilist.Media) []string {
	out := make([]string, 0, len(media))
	for _, m := range media {
		if title := m.Title.Preferred(); title != "" {
			out = append(out, title)
		}
	}
	return out
}

func (c *Cache) recordFailure(ctx context.Context, logger *slog.Logger, started time.Time, pages int, elapsed time.Duration) {
	c.mu.Lock()
	c.lastAttempt = started
	c.lastResult = metrics.RefreshFailed
	c.lastPages = pages
	c.failures++
	kept := len(c.titles)
	lastRefreshed := c.lastRefreshed
	c.mu.Unlock()

	c.metrics.RecordRefresh(metrics.RefreshFailed, elapsed)
	logging.WarnWithContext(logger, "title refresh collected no titles", "refresh_empty",
		logging.Int("cached_titles", kept),
		logging.String(logging.FieldErrorHint, "AniList unreachable or throttling; the next request retries"),
		logging.String(logging.FieldImpact, "serving previous title list"),
	)
	if err := c.notifier.NotifyRefreshFailed(context.WithoutCancel(ctx), kept, lastRefreshed); err != nil {
		logger.Debug("refresh failure notification failed", logging.Error(err))
	}
}

func (c *Cache) persist(ctx context.Context, logger *slog.Logger, snap snapshot.Snapshot) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(context.WithoutCancel(ctx), snap); err != nil {
		logging.WarnWithContext(logger, "snapshot save failed", "snapshot_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the state directory"),
			logging.String(logging.FieldImpact, "a restart will refetch titles before serving suggestions"),
		)
	}
}

func (c *Cache) restore(ctx context.Context) {
	if c.store == nil {
		return
	}
	snap, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, snapshot.ErrEmpty) {
			logging.WarnWithContext(c.logger, "snapshot load failed", "snapshot_load_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "cache starts empty"),
			)
		}
		return
	}
	titles := snap.Titles
	if len(titles) > c.topN {
		titles = titles[:c.topN]
	}
	c.mu.Lock()
	c.titles = titles
	c.lastRefreshed = snap.RefreshedAt
	c.restored = true
	c.mu.Unlock()
	c.metrics.SetCachedTitles(len(titles))
	c.logger.Info("title cache restored from snapshot",
		logging.Int("titles", len(titles)),
		logging.String("refreshed_at", snap.RefreshedAt.UTC().Format(time.RFC3339)),
	)
}

// Suggestions refreshes if needed and returns up to the suggestion limit of
// cached titles containing partial, compared case-insensitively, in
// popularity order.
func (c *Cache) Suggestions(ctx context.Context, partial string) []string {
	c.RefreshIfStale(ctx)

	c.mu.RLock()
	titles := c.titles
	c.mu.RUnlock()

	matches := make([]string, 0, c.suggestionLimit)
	if len(titles) == 0 {
		return matches
	}
	needle := strings.ToLower(partial)
	for _, title := range titles {
		if strings.Contains(strings.ToLower(title), needle) {
			matches = append(matches, title)
			if len(matches) == c.suggestionLimit {
				break
			}
		}
	}
	return matches
}

// Contains refreshes if needed and reports whether title is one of the cached
// titles, compared exactly.
func (c *Cache) Contains(ctx context.Context, title string) bool {
	c.RefreshIfStale(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cached := range c.titles {
		if cached == title {
			return true
		}
	}
	return false
}

// FetchDetails issues one detail query for title. It reports false when the
// request fails or AniList has no match; the cache is not consulted.
func (c *Cache) FetchDetails(ctx context.Context, title string) (*anilist.MediaDetails, bool) {
	logger := logging.WithContext(ctx, c.logger)
	details, err := c.source.Details(ctx, title)
	switch {
	case err == nil && details != nil:
		c.metrics.RecordDetailFetch("found")
		return details, true
	case err == nil, errors.Is(err, anilist.ErrNotFound):
		c.metrics.RecordDetailFetch("not_found")
		logger.Debug("anilist has no match", logging.String("title", title))
	default:
		c.metrics.RecordDetailFetch("error")
		logging.WarnWithContext(logger, "detail fetch failed", "detail_fetch_failed",
			logging.String("title", title),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check AniList availability"),
			logging.String(logging.FieldImpact, "details unavailable for this request"),
		)
	}
	return nil, false
}

// Titles returns a copy of the cached titles without refreshing.
func (c *Cache) Titles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.titles))
	copy(out, c.titles)
	return out
}

// LastRefreshed returns when the cached titles were fetched; zero if never.
func (c *Cache) LastRefreshed() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefreshed
}

// Stats returns a snapshot of cache state without refreshing.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Titles:              len(c.titles),
		LastRefreshed:       c.lastRefreshed,
		Fresh:               len(c.titles) > 0 && c.now().Sub(c.lastRefreshed) < c.freshness,
		LastAttempt:         c.lastAttempt,
		LastResult:          c.lastResult,
		LastPages:           c.lastPages,
		ConsecutiveFailures: c.failures,
		RestoredFromDisk:    c.restored,
	}
}

// Close releases the source's network resources. It is safe to call more than once.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		if c.source != nil {
			c.closeErr = c.source.Close()
		}
	})
	return c.closeErr
}
