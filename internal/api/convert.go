package api

import (
	"time"

	"animebot/internal/animecmd"
	"animebot/internal/preflight"
	"animebot/internal/titlecache"
)

// FromChoices converts autocomplete choices to their API representation.
func FromChoices(choices []animecmd.Choice) []Choice {
	out := make([]Choice, 0, len(choices))
	for _, c := range choices {
		out = append(out, Choice{Name: c.Name, Value: c.Value})
	}
	return out
}

// FromCard converts a rendered card to its API representation.
func FromCard(card animecmd.Card) AnimeCard {
	return AnimeCard{
		Title:       card.Title,
		URL:         card.URL,
		Description: card.Description,
		Score:       card.Score,
		Episodes:    card.Episodes,
		Status:      card.Status,
		Thumbnail:   card.Thumbnail,
		Summary:     card.Summary(),
	}
}

// FromStats converts cache statistics to their API representation.
func FromStats(stats titlecache.Stats) CacheStatus {
	return CacheStatus{
		Titles:              stats.Titles,
		Fresh:               stats.Fresh,
		LastRefreshed:       FormatTime(stats.LastRefreshed),
		LastAttempt:         FormatTime(stats.LastAttempt),
		LastResult:          stats.LastResult,
		LastPages:           stats.LastPages,
		ConsecutiveFailures: stats.ConsecutiveFailures,
		RestoredFromDisk:    stats.RestoredFromDisk,
	}
}

// FromCheckResults converts preflight results to their API representation.
func FromCheckResults(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FormatTime renders t in the API timestamp format; zero becomes empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime parses an API timestamp; empty yields the zero time.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateTimeFormat, value)
}
