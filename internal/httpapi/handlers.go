package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"animebot/internal/animecmd"
	"animebot/internal/api"
	"animebot/internal/logging"
	"animebot/internal/services"
)

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.status != nil {
		writeJSON(w, h.logger, http.StatusOK, h.status(r.Context()))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, api.DaemonStatus{
		Running: true,
		PID:     os.Getpid(),
		Cache:   api.FromStats(h.cache.Stats()),
	})
}

func (h *handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	choices := h.commands.Autocomplete(r.Context(), query)
	writeJSON(w, h.logger, http.StatusOK, api.SuggestionsResponse{
		Query:   query,
		Choices: api.FromChoices(choices),
	})
}

func (h *handler) handleDetails(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "title query parameter required")
		return
	}
	card, err := h.commands.Details(r.Context(), title)
	if err != nil {
		status := services.HTTPStatus(err)
		message, _ := animecmd.UserMessage(err)
		if status >= http.StatusInternalServerError {
			logging.WarnWithContext(logging.WithContext(r.Context(), h.logger), "details request failed", "details_failed",
				logging.String("title", title),
				logging.Error(err),
				logging.Int("status", status),
			)
		}
		writeError(w, h.logger, status, errorCode(err), message)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, api.DetailsResponse{Card: api.FromCard(card)})
}

func (h *handler) handleTitles(w http.ResponseWriter, r *http.Request) {
	titles := h.cache.Titles()
	total := len(titles)
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		if limit > 0 && limit < len(titles) {
			titles = titles[:limit]
		}
	}
	writeJSON(w, h.logger, http.StatusOK, api.TitlesResponse{
		Titles:        titles,
		Total:         total,
		LastRefreshed: api.FormatTime(h.cache.LastRefreshed()),
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, animecmd.ErrNotInTopList):
		return "not_in_top_list"
	case errors.Is(err, animecmd.ErrDetailsUnavailable):
		return "details_unavailable"
	case errors.Is(err, services.ErrValidation):
		return "invalid_request"
	default:
		return "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	writeJSON(w, logger, status, api.ErrorResponse{Error: code, Message: message})
}
