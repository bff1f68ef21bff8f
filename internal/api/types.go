package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Choice is one autocomplete option.
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SuggestionsResponse wraps autocomplete choices for a partial title.
type SuggestionsResponse struct {
	Query   string   `json:"query"`
	Choices []Choice `json:"choices"`
}

// AnimeCard is the rendered detail view of a single anime.
type AnimeCard struct {
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
	Score       string `json:"score"`
	Episodes    string `json:"episodes"`
	Status      string `json:"status"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Summary     string `json:"summary"`
}

// DetailsResponse wraps a single card.
type DetailsResponse struct {
	Card AnimeCard `json:"card"`
}

// TitlesResponse lists cached titles without triggering a refresh.
type TitlesResponse struct {
	Titles        []string `json:"titles"`
	Total         int      `json:"total"`
	LastRefreshed string   `json:"lastRefreshed,omitempty"`
}

// CacheStatus summarizes title cache state.
type CacheStatus struct {
	Titles              int    `json:"titles"`
	Fresh               bool   `json:"fresh"`
	LastRefreshed       string `json:"lastRefreshed,omitempty"`
	LastAttempt         string `json:"lastAttempt,omitempty"`
	LastResult          string `json:"lastResult,omitempty"`
	LastPages           int    `json:"lastPages"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	RestoredFromDisk    bool   `json:"restoredFromDisk"`
}

// CheckResult mirrors a preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running         bool          `json:"running"`
	PID             int           `json:"pid"`
	LockFilePath    string        `json:"lockFilePath"`
	SnapshotPath    string        `json:"snapshotPath,omitempty"`
	AniListEndpoint string        `json:"anilistEndpoint"`
	WarmSchedule    string        `json:"warmSchedule,omitempty"`
	TracingEnabled  bool          `json:"tracingEnabled"`
	Cache           CacheStatus   `json:"cache"`
	Checks          []CheckResult `json:"checks,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response. Message, when
// present, is safe to show to the person who issued the command.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
