package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// AniListServer is a fake AniList GraphQL endpoint serving a fixed
// popularity list and detail records.
type AniListServer struct {
	*httptest.Server

	mu             sync.Mutex
	titles         []string
	details        map[string]map[string]any
	failPage       int
	pageRequests   int
	detailRequests int
}

// NewAniListServer starts a fake endpoint listing titles in popularity order.
func NewAniListServer(t testing.TB, titles []string) *AniListServer {
	t.Helper()
	s := &AniListServer{titles: titles, details: map[string]map[string]any{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// AddDetails registers the Media record returned for search.
func (s *AniListServer) AddDetails(search string, media map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[search] = media
}

// FailPage makes every request for page fail with a 500; 0 disables.
func (s *AniListServer) FailPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPage = page
}

// PageRequests returns how many listing requests were served.
func (s *AniListServer) PageRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageRequests
}

// DetailRequests returns how many detail requests were served.
func (s *AniListServer) DetailRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detailRequests
}

func (s *AniListServer) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"errors":[{"message":"bad request","status":400}]}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.Contains(req.Query, "Media(search"):
		s.serveDetails(w, req.Variables)
	case strings.Contains(req.Query, "POPULARITY_DESC"):
		s.servePage(w, req.Variables)
	default:
		_, _ = w.Write([]byte(`{"data":{"Page":{"pageInfo":{"total":0}}}}`))
	}
}

func (s *AniListServer) servePage(w http.ResponseWriter, vars map[string]any) {
	page := intVar(vars, "page")
	perPage := intVar(vars, "perPage")

	s.mu.Lock()
	s.pageRequests++
	failPage := s.failPage
	titles := s.titles
	s.mu.Unlock()

	if failPage != 0 && page == failPage {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Internal Server Error","status":500}]}`))
		return
	}

	media := []map[string]any{}
	start := (page - 1) * perPage
	for i := start; i >= 0 && i < len(titles) && i < start+perPage; i++ {
		media = append(media, map[string]any{
			"id":    i + 1,
			"title": map[string]any{"romaji": titles[i], "english": titles[i], "native": nil},
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"Page": map[string]any{"media": media}}})
}

func (s *AniListServer) serveDetails(w http.ResponseWriter, vars map[string]any) {
	search, _ := vars["search"].(string)

	s.mu.Lock()
	s.detailRequests++
	media, ok := s.details[search]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"data":{"Media":null},"errors":[{"message":"Not Found.","status":404}]}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"Media": media}})
}

func intVar(vars map[string]any, key string) int {
	if v, ok := vars[key].(float64); ok {
		return int(v)
	}
	return 0
}
