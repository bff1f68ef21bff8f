package anilist

// Title holds the localized names AniList reports for a media entry.
// Any of them may be absent.
type Title struct {
	Romaji  *string `json:"romaji"`
	English *string `json:"english"`
	Native  *string `json:"native"`
}

// Preferred returns the English title, falling back to Romaji. Empty
// strings count as absent. The result is empty when neither is usable.
func (t Title) Preferred() string {
	if t.English != nil && *t.English != "" {
		return *t.English
	}
	if t.Romaji != nil && *t.Romaji != "" {
		return *t.Romaji
	}
	return ""
}

// Media is one entry of the popularity listing.
type Media struct {
	ID    int64 `json:"id"`
	Title Title `json:"title"`
}

// CoverImage carries cover art URLs in two sizes.
type CoverImage struct {
	Large  *string `json:"large"`
	Medium *string `json:"medium"`
}

// MediaDetails is the detail record returned for a single title search.
// Nullable upstream fields stay pointers so callers can tell absent from zero.
type MediaDetails struct {
	ID           int64       `json:"id"`
	Title        Title       `json:"title"`
	Description  *string     `json:"description"`
	AverageScore *int        `json:"averageScore"`
	Episodes     *int        `json:"episodes"`
	Status       *string     `json:"status"`
	CoverImage   *CoverImage `json:"coverImage"`
	SiteURL      *string     `json:"siteUrl"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type pageResponse struct {
	Data *struct {
		Page *struct {
			Media []Media `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type detailResponse struct {
	Data *struct {
		Media *MediaDetails `json:"Media"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}
