package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"animebot/internal/anilist"
	"animebot/internal/animecmd"
	"animebot/internal/config"
	"animebot/internal/daemon"
	"animebot/internal/logging"
	"animebot/internal/metrics"
	"animebot/internal/notifications"
	"animebot/internal/preflight"
	"animebot/internal/snapshot"
	"animebot/internal/titlecache"
	"animebot/internal/tracing"
	"animebot/internal/warmer"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	Version  string
}

// Runtime is an assembled daemon plus the process-wide resources it depends on.
type Runtime struct {
	Daemon  *daemon.Daemon
	Metrics *metrics.Metrics

	tracer *tracing.Provider
	logger *slog.Logger
}

// Run starts the animebot daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logCfg := *cfg
	if opts.LogLevel != "" {
		logCfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	rt, err := Assemble(signalCtx, cfg, logger, opts.Version)
	if err != nil {
		logger.Error("assemble daemon", logging.Error(err))
		return err
	}
	defer rt.Close()

	logConfigSnapshot(logger, cfg)
	rt.Daemon.SetPreflight(runPreflight(signalCtx, logger, cfg))

	if err := rt.Daemon.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running animebotd and the api.bind address"),
			logging.String(logging.FieldImpact, "no suggestions or details will be served"),
		)
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("animebot daemon shutting down")
	return nil
}

// Assemble builds every daemon component from cfg without starting anything.
func Assemble(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	tracer, err := tracing.InitProvider(ctx, cfg.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	rt := &Runtime{Metrics: metrics.New(), tracer: tracer, logger: logger}

	userAgent := cfg.AniList.UserAgent
	if version != "" {
		userAgent = fmt.Sprintf("%s (%s)", userAgent, version)
	}
	client, err := anilist.New(
		anilist.WithEndpoint(cfg.AniList.Endpoint),
		anilist.WithUserAgent(userAgent),
		anilist.WithTimeout(cfg.AniListTimeout()),
	)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("create anilist client: %w", err)
	}

	notifier := notifications.NewService(cfg)
	cacheOpts := []titlecache.Option{
		titlecache.WithTopN(cfg.Cache.TopN),
		titlecache.WithPerPage(cfg.Cache.PerPage),
		titlecache.WithFreshness(cfg.Freshness()),
		titlecache.WithPageDelay(cfg.PageDelay()),
		titlecache.WithSuggestionLimit(cfg.Cache.SuggestionLimit),
		titlecache.WithNotifier(notifier),
		titlecache.WithMetrics(rt.Metrics),
		titlecache.WithLogger(logger),
	}

	deps := daemon.Dependencies{
		Metrics:        rt.Metrics,
		Notifier:       notifier,
		TracingEnabled: tracer.Enabled(),
	}
	if cfg.Cache.SnapshotEnabled {
		store, err := snapshot.Open(cfg.SnapshotPath())
		if err != nil {
			logging.WarnWithContext(logger, "snapshot store unavailable", "snapshot_open_failed",
				logging.String("path", cfg.SnapshotPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on paths.state_dir"),
				logging.String(logging.FieldImpact, "titles will not survive a restart"),
			)
		} else {
			cacheOpts = append(cacheOpts, titlecache.WithSnapshotStore(store))
			deps.Snapshots = store
		}
	}

	deps.Cache = titlecache.New(client, cacheOpts...)
	deps.Commands = animecmd.NewHandler(deps.Cache, logger)

	w, err := warmer.New(deps.Cache, cfg.Cache.WarmSchedule, logger)
	if err != nil {
		closeDeps(deps)
		rt.Close()
		return nil, fmt.Errorf("create cache warmer: %w", err)
	}
	deps.Warmer = w

	d, err := daemon.New(cfg, logger, deps)
	if err != nil {
		closeDeps(deps)
		rt.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	rt.Daemon = d
	return rt, nil
}

// Close shuts the daemon down and flushes traces.
func (r *Runtime) Close() {
	if r.Daemon != nil {
		if err := r.Daemon.Close(); err != nil {
			r.logger.Warn("daemon close failed", logging.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.tracer.Shutdown(ctx); err != nil {
		r.logger.Warn("tracing shutdown failed", logging.Error(err))
	}
}

func closeDeps(deps daemon.Dependencies) {
	if deps.Cache != nil {
		_ = deps.Cache.Close()
	}
	if deps.Snapshots != nil {
		_ = deps.Snapshots.Close()
	}
}

func runPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) []preflight.Result {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `animebot status` for details"),
			logging.String(logging.FieldImpact, "the cache keeps serving its last titles until the check passes"),
		)
	}
	return results
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("anilist_endpoint", cfg.AniList.Endpoint),
		logging.Int("top_n", cfg.Cache.TopN),
		logging.Int("per_page", cfg.Cache.PerPage),
		logging.Duration("freshness", cfg.Freshness()),
		logging.Duration("page_delay", cfg.PageDelay()),
		logging.Bool("snapshot_enabled", cfg.Cache.SnapshotEnabled),
		logging.String("warm_schedule", cfg.Cache.WarmSchedule),
		logging.String("api_bind", cfg.API.Bind),
		logging.Bool("api_token_present", cfg.API.Token != ""),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
		logging.Bool("tracing_enabled", cfg.Tracing.Enabled),
	)
}
