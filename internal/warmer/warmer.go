package warmer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"animebot/internal/logging"
)

// Refresher is the cache operation the warmer drives.
type Refresher interface {
	RefreshIfStale(ctx context.Context)
}

// Warmer refreshes the title cache at start and then on a cron schedule so
// user requests rarely pay for a refresh. The cache's freshness rule still
// decides whether each tick reaches AniList.
type Warmer struct {
	refresher Refresher
	schedule  string
	logger    *slog.Logger
	cron      *cron.Cron

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New validates schedule and builds a Warmer. An empty schedule disables the
// periodic run; the warm-up at Start still happens.
func New(refresher Refresher, schedule string, logger *slog.Logger) (*Warmer, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("parse warm schedule %q: %w", schedule, err)
		}
	}
	logger = logging.NewComponentLogger(logger, "warmer")
	adapter := cronLogger{logger: logger}
	return &Warmer{
		refresher: refresher,
		schedule:  schedule,
		logger:    logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(adapter),
			cron.SkipIfStillRunning(adapter),
		)),
	}, nil
}

// Schedule returns the configured cron expression; empty when disabled.
func (w *Warmer) Schedule() string {
	return w.schedule
}

// Start runs one warm-up refresh in the background and starts the schedule.
func (w *Warmer) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if w.schedule != "" {
		if _, err := w.cron.AddFunc(w.schedule, func() { w.warm(runCtx, "schedule") }); err != nil {
			cancel()
			return fmt.Errorf("register warm schedule: %w", err)
		}
		w.cron.Start()
	}
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.warm(runCtx, "startup")
	}()

	w.logger.Info("cache warmer started", logging.String("schedule", w.scheduleLabel()))
	return nil
}

// Stop halts the schedule and waits for in-flight refreshes to return.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	<-w.cron.Stop().Done()
	w.wg.Wait()
	for _, entry := range w.cron.Entries() {
		w.cron.Remove(entry.ID)
	}
	w.logger.Info("cache warmer stopped")
}

func (w *Warmer) warm(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Debug("warming title cache", logging.String("trigger", trigger))
	w.refresher.RefreshIfStale(ctx)
}

func (w *Warmer) scheduleLabel() string {
	if w.schedule == "" {
		return "disabled"
	}
	return w.schedule
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{logging.Error(err)}, keysAndValues...)
	l.logger.Error(msg, args...)
}
