package animecmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"animebot/internal/anilist"
	"animebot/internal/logging"
	"animebot/internal/services"
)

const (
	maxDescriptionRunes = 300
	noDescription       = "No description available."
	unknownValue        = "Unknown"
	noScore             = "N/A"
)

var (
	// ErrNotInTopList marks a details request for a title outside the cached list.
	ErrNotInTopList = fmt.Errorf("not in top anime list: %w", services.ErrNotFound)
	// ErrDetailsUnavailable marks a details request AniList could not answer.
	ErrDetailsUnavailable = fmt.Errorf("details unavailable: %w", services.ErrUpstream)
	// ErrMissingTitle marks a details request without a title.
	ErrMissingTitle = fmt.Errorf("anime title required: %w", services.ErrValidation)
)

// TitleCache is the part of the title cache the commands depend on.
type TitleCache interface {
	Suggestions(ctx context.Context, partial string) []string
	Contains(ctx context.Context, title string) bool
	FetchDetails(ctx context.Context, title string) (*anilist.MediaDetails, bool)
}

// Choice is one autocomplete option.
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Card is the rendered detail view of a single anime.
type Card struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
	Score       string `json:"score"`
	Episodes    string `json:"episodes"`
	Status      string `json:"status"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Summary is the short body shown under the card title.
func (c Card) Summary() string {
	return fmt.Sprintf("Score: %s\nEpisodes: %s", c.Score, c.Episodes)
}

// UserError carries the message shown to the person who issued the command.
type UserError struct {
	kind    error
	message string
}

func (e *UserError) Error() string { return e.message }

func (e *UserError) Unwrap() error { return e.kind }

// UserMessage returns the user-facing text of err when it is a UserError.
func UserMessage(err error) (string, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.message, true
	}
	return "", false
}

// Handler renders the anime commands on top of the title cache.
type Handler struct {
	cache  TitleCache
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cache TitleCache, logger *slog.Logger) *Handler {
	return &Handler{
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "animecmd"),
	}
}

// Autocomplete returns the choices offered while the user types current.
func (h *Handler) Autocomplete(ctx context.Context, current string) []Choice {
	ctx = services.WithCommand(ctx, "autocomplete")
	suggestions := h.cache.Suggestions(ctx, current)
	choices := make([]Choice, 0, len(suggestions))
	for _, s := range suggestions {
		choices = append(choices, Choice{Name: s, Value: s})
	}
	return choices
}

// Details renders the card for anime. The title must be in the cached top
// list; otherwise a UserError wrapping ErrNotInTopList is returned.
func (h *Handler) Details(ctx context.Context, anime string) (Card, error) {
	ctx = services.WithCommand(ctx, "animedetails")
	logger := logging.WithContext(ctx, h.logger)
	if strings.TrimSpace(anime) == "" {
		return Card{}, &UserError{kind: ErrMissingTitle, message: "Please choose an anime."}
	}
	if !h.cache.Contains(ctx, anime) {
		logger.Debug("title not in top list", logging.String("anime", anime))
		return Card{}, &UserError{
			kind:    ErrNotInTopList,
			message: fmt.Sprintf("'%s' is not in the current top anime list.", anime),
		}
	}
	details, ok := h.cache.FetchDetails(ctx, anime)
	if !ok {
		return Card{}, &UserError{
			kind:    ErrDetailsUnavailable,
			message: fmt.Sprintf("Could not fetch details for %s.", anime),
		}
	}
	return render(anime, details), nil
}

func render(requested string, d *anilist.MediaDetails) Card {
	card := Card{
		Title:       d.Title.Preferred(),
		Description: truncateDescription(deref(d.Description)),
		Score:       noScore,
		Episodes:    unknownValue,
		Status:      unknownValue,
		URL:         deref(d.SiteURL),
	}
	if card.Title == "" {
		card.Title = requested
	}
	if card.Description == "" {
		card.Description = noDescription
	}
	if d.AverageScore != nil {
		card.Score = strconv.Itoa(*d.AverageScore)
	}
	if d.Episodes != nil {
		card.Episodes = strconv.Itoa(*d.Episodes)
	}
	if status := strings.TrimSpace(deref(d.Status)); status != "" {
		// Casers are stateful; build one per call.
		card.Status = cases.Title(language.Und).String(strings.ReplaceAll(status, "_", " "))
	}
	if d.CoverImage != nil {
		card.Thumbnail = deref(d.CoverImage.Large)
		if card.Thumbnail == "" {
			card.Thumbnail = deref(d.CoverImage.Medium)
		}
	}
	return card
}

func truncateDescription(desc string) string {
	if utf8.RuneCountInString(desc) <= maxDescriptionRunes {
		return desc
	}
	runes := []rune(desc)
	return string(runes[:maxDescriptionRunes-3]) + "..."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
