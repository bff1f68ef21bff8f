package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"animebot/internal/animecmd"
	"animebot/internal/api"
	"animebot/internal/config"
	"animebot/internal/logging"
	"animebot/internal/metrics"
	"animebot/internal/notifications"
	"animebot/internal/preflight"
	"animebot/internal/titlecache"
	"animebot/internal/warmer"
)

// Dependencies are the long-lived components the daemon owns.
type Dependencies struct {
	Cache    *titlecache.Cache
	Commands *animecmd.Handler
	Warmer   *warmer.Warmer
	Metrics  *metrics.Metrics
	Notifier notifications.Service
	// Snapshots is closed after the cache; nil when persistence is off.
	Snapshots      io.Closer
	TracingEnabled bool
}

// Daemon coordinates the cache warmer and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Dependencies
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc

	checksMu sync.RWMutex
	checks   []preflight.Result

	closeOnce sync.Once
	closeErr  error
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, deps Dependencies) (*Daemon, error) {
	if cfg == nil || logger == nil || deps.Cache == nil || deps.Commands == nil {
		return nil, errors.New("daemon requires config, logger, cache, and command handler")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewNoop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		deps:     deps,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, then starts the warmer and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another animebot daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	if d.deps.Warmer != nil {
		if err := d.deps.Warmer.Start(runCtx); err != nil {
			d.api.stop()
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start cache warmer: %w", err)
		}
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("animebot daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.APIAddr()),
	)
	return nil
}

// Stop halts background work and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.deps.Warmer != nil {
		d.deps.Warmer.Stop()
	}
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("animebot daemon stopped")
}

// Close stops the daemon and releases the cache and snapshot store.
func (d *Daemon) Close() error {
	d.closeOnce.Do(func() {
		d.Stop()
		var errs []error
		if err := d.deps.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close title cache: %w", err))
		}
		if d.deps.Snapshots != nil {
			if err := d.deps.Snapshots.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close snapshot store: %w", err))
			}
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddr returns the address the API server is bound to, or "" when it is
// not listening.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// SetPreflight records the latest preflight results for status output.
func (d *Daemon) SetPreflight(results []preflight.Result) {
	d.checksMu.Lock()
	defer d.checksMu.Unlock()
	d.checks = append([]preflight.Result(nil), results...)
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) api.DaemonStatus {
	d.checksMu.RLock()
	checks := api.FromCheckResults(d.checks)
	d.checksMu.RUnlock()

	status := api.DaemonStatus{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		LockFilePath:    d.lockPath,
		AniListEndpoint: d.cfg.AniList.Endpoint,
		TracingEnabled:  d.deps.TracingEnabled,
		Cache:           api.FromStats(d.deps.Cache.Stats()),
		Checks:          checks,
	}
	if d.deps.Snapshots != nil {
		status.SnapshotPath = d.cfg.SnapshotPath()
	}
	if d.deps.Warmer != nil {
		status.WarmSchedule = d.deps.Warmer.Schedule()
	}
	return status
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.deps.Notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
