package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"animebot/internal/animecmd"
	"animebot/internal/api"
	"animebot/internal/logging"
	"animebot/internal/metrics"
	"animebot/internal/titlecache"
)

// Cache is the read-only view of the title cache the API exposes.
type Cache interface {
	Titles() []string
	LastRefreshed() time.Time
	Stats() titlecache.Stats
}

// Commands renders the anime commands.
type Commands interface {
	Autocomplete(ctx context.Context, current string) []animecmd.Choice
	Details(ctx context.Context, anime string) (animecmd.Card, error)
}

// StatusFunc reports daemon status for GET /api/status.
type StatusFunc func(ctx context.Context) api.DaemonStatus

// Config holds optional router dependencies.
type Config struct {
	// Token, when set, is required as a bearer token on /api routes.
	Token   string
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Status  StatusFunc
}

type handler struct {
	cache    Cache
	commands Commands
	status   StatusFunc
	logger   *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cache Cache, commands Commands, cfg Config) http.Handler {
	logger := logging.NewComponentLogger(cfg.Logger, "api-server")
	h := &handler{cache: cache, commands: commands, status: cfg.Status, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger, cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(cfg.Token))
		r.Get("/status", h.handleStatus)
		r.Route("/anime", func(r chi.Router) {
			r.Get("/suggestions", h.handleSuggestions)
			r.Get("/details", h.handleDetails)
			r.Get("/titles", h.handleTitles)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, logger, http.StatusNotFound, "not_found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, logger, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})
	return r
}
