package animecmd_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"animebot/internal/anilist"
	"animebot/internal/animecmd"
	"animebot/internal/logging"
	"animebot/internal/services"
)

type stubCache struct {
	titles       []string
	details      *anilist.MediaDetails
	detailsOK    bool
	detailLookup []string
}

func (s *stubCache) Suggestions(_ context.Context, partial string) []string {
	var out []string
	for _, t := range s.titles {
		if strings.Contains(strings.ToLower(t), strings.ToLower(partial)) {
			out = append(out, t)
		}
	}
	return out
}

func (s *stubCache) Contains(_ context.Context, title string) bool {
	for _, t := range s.titles {
		if t == title {
			return true
		}
	}
	return false
}

func (s *stubCache) FetchDetails(_ context.Context, title string) (*anilist.MediaDetails, bool) {
	s.detailLookup = append(s.detailLookup, title)
	return s.details, s.detailsOK
}

func ptr[T any](v T) *T { return &v }

func TestAutocompleteMirrorsSuggestions(t *testing.T) {
	cache := &stubCache{titles: []string{"Naruto", "Naruto Shippuden", "One Piece"}}
	h := animecmd.NewHandler(cache, logging.NewNop())

	choices := h.Autocomplete(context.Background(), "naru")
	if len(choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(choices))
	}
	for i, want := range []string{"Naruto", "Naruto Shippuden"} {
		if choices[i].Name != want || choices[i].Value != want {
			t.Fatalf("choice %d = %#v", i, choices[i])
		}
	}
	if got := h.Autocomplete(context.Background(), "xyz"); len(got) != 0 {
		t.Fatalf("expected no choices, got %#v", got)
	}
}

func TestDetailsNotInTopList(t *testing.T) {
	cache := &stubCache{titles: []string{"Naruto"}}
	h := animecmd.NewHandler(cache, nil)

	_, err := h.Details(context.Background(), "Bleach")
	if !errors.Is(err, animecmd.ErrNotInTopList) {
		t.Fatalf("expected ErrNotInTopList, got %v", err)
	}
	if services.HTTPStatus(err) != 404 {
		t.Fatalf("status = %d", services.HTTPStatus(err))
	}
	msg, ok := animecmd.UserMessage(err)
	if !ok || msg != "'Bleach' is not in the current top anime list." {
		t.Fatalf("message = %q", msg)
	}
	if len(cache.detailLookup) != 0 {
		t.Fatal("details should not be fetched for unknown titles")
	}
}

func TestDetailsUnavailable(t *testing.T) {
	cache := &stubCache{titles: []string{"Naruto"}}
	h := animecmd.NewHandler(cache, nil)

	_, err := h.Details(context.Background(), "Naruto")
	if !errors.Is(err, animecmd.ErrDetailsUnavailable) {
		t.Fatalf("expected ErrDetailsUnavailable, got %v", err)
	}
	if services.HTTPStatus(err) != 502 {
		t.Fatalf("status = %d", services.HTTPStatus(err))
	}
	if msg, _ := animecmd.UserMessage(err); msg != "Could not fetch details for Naruto." {
		t.Fatalf("message = %q", msg)
	}
}

func TestDetailsMissingTitle(t *testing.T) {
	h := animecmd.NewHandler(&stubCache{}, nil)
	if _, err := h.Details(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDetailsRendersCard(t *testing.T) {
	cache := &stubCache{
		titles:    []string{"Shingeki no Kyojin"},
		detailsOK: true,
		details: &anilist.MediaDetails{
			ID:           16498,
			Title:        anilist.Title{Romaji: ptr("Shingeki no Kyojin"), English: ptr("Attack on Titan")},
			Description:  ptr("Humans fight titans."),
			AverageScore: ptr(85),
			Episodes:     ptr(25),
			Status:       ptr("NOT_YET_RELEASED"),
			CoverImage:   &anilist.CoverImage{Medium: ptr("https://img/medium.jpg")},
			SiteURL:      ptr("https://anilist.co/anime/16498"),
		},
	}
	h := animecmd.NewHandler(cache, nil)

	card, err := h.Details(context.Background(), "Shingeki no Kyojin")
	if err != nil {
		t.Fatalf("Details returned error: %v", err)
	}
	want := animecmd.Card{
		Title:       "Attack on Titan",
		URL:         "https://anilist.co/anime/16498",
		Description: "Humans fight titans.",
		Score:       "85",
		Episodes:    "25",
		Status:      "Not Yet Released",
		Thumbnail:   "https://img/medium.jpg",
	}
	if card != want {
		t.Fatalf("card = %#v\nwant %#v", card, want)
	}
	if card.Summary() != "Score: 85\nEpisodes: 25" {
		t.Fatalf("summary = %q", card.Summary())
	}
}

func TestDetailsFallbacks(t *testing.T) {
	cache := &stubCache{
		titles:    []string{"Mystery"},
		detailsOK: true,
		details:   &anilist.MediaDetails{ID: 1},
	}
	h := animecmd.NewHandler(cache, nil)

	card, err := h.Details(context.Background(), "Mystery")
	if err != nil {
		t.Fatalf("Details returned error: %v", err)
	}
	if card.Title != "Mystery" {
		t.Fatalf("title = %q", card.Title)
	}
	if card.Description != "No description available." || card.Score != "N/A" || card.Episodes != "Unknown" || card.Status != "Unknown" {
		t.Fatalf("unexpected fallbacks %#v", card)
	}
	if card.Thumbnail != "" {
		t.Fatalf("thumbnail = %q", card.Thumbnail)
	}
}

func TestDescriptionTruncation(t *testing.T) {
	tests := []struct {
		name    string
		desc    string
		wantLen int
		suffix  bool
	}{
		{name: "short", desc: strings.Repeat("a", 120), wantLen: 120},
		{name: "exact limit", desc: strings.Repeat("b", 300), wantLen: 300},
		{name: "over limit", desc: strings.Repeat("c", 301), wantLen: 300, suffix: true},
		{name: "multibyte", desc: strings.Repeat("進", 400), wantLen: 300, suffix: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &stubCache{
				titles:    []string{"X"},
				detailsOK: true,
				details:   &anilist.MediaDetails{Description: ptr(tt.desc)},
			}
			card, err := animecmd.NewHandler(cache, nil).Details(context.Background(), "X")
			if err != nil {
				t.Fatalf("Details returned error: %v", err)
			}
			if got := len([]rune(card.Description)); got != tt.wantLen {
				t.Fatalf("description runes = %d, want %d", got, tt.wantLen)
			}
			if strings.HasSuffix(card.Description, "...") != tt.suffix {
				t.Fatalf("suffix mismatch for %q", card.Description[len(card.Description)-6:])
			}
		})
	}
}
