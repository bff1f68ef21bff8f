package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"animebot/internal/anilist"
	"animebot/internal/animecmd"
	"animebot/internal/api"
	"animebot/internal/httpapi"
	"animebot/internal/logging"
	"animebot/internal/metrics"
	"animebot/internal/testsupport"
	"animebot/internal/titlecache"
)

type fixture struct {
	upstream *testsupport.AniListServer
	cache    *titlecache.Cache
	router   http.Handler
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	upstream := testsupport.NewAniListServer(t, []string{"Naruto", "Naruto Shippuden", "One Piece", "Bleach"})
	upstream.AddDetails("Naruto", map[string]any{
		"id":           20,
		"title":        map[string]any{"romaji": "NARUTO", "english": "Naruto"},
		"description":  "A ninja story.",
		"averageScore": 79,
		"episodes":     220,
		"status":       "FINISHED",
		"coverImage":   map[string]any{"large": "https://img/large.jpg", "medium": nil},
		"siteUrl":      "https://anilist.co/anime/20",
	})

	client, err := anilist.New(anilist.WithEndpoint(upstream.URL))
	if err != nil {
		t.Fatalf("anilist.New: %v", err)
	}
	m := metrics.New()
	cache := titlecache.New(client, titlecache.WithPageDelay(0), titlecache.WithMetrics(m))
	t.Cleanup(func() { _ = cache.Close() })

	router := httpapi.NewRouter(cache, animecmd.NewHandler(cache, logging.NewNop()), httpapi.Config{
		Token:   token,
		Metrics: m,
		Logger:  logging.NewNop(),
	})
	return &fixture{upstream: upstream, cache: cache, router: router}
}

func (f *fixture) get(t *testing.T, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "secret")
	w := f.get(t, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(httpapi.RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, "")
	w := f.get(t, "/healthz", map[string]string{httpapi.RequestIDHeader: "req-123"})
	if got := w.Header().Get(httpapi.RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t, "")
	w := f.get(t, "/api/anime/suggestions?q=naruto", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[api.SuggestionsResponse](t, w)
	if len(resp.Choices) != 2 || resp.Choices[0].Name != "Naruto" || resp.Choices[1].Value != "Naruto Shippuden" {
		t.Fatalf("unexpected choices %#v", resp.Choices)
	}

	requests := f.upstream.PageRequests()
	w = f.get(t, "/api/anime/suggestions?q=xyz", nil)
	resp = decode[api.SuggestionsResponse](t, w)
	if resp.Choices == nil || len(resp.Choices) != 0 {
		t.Fatalf("expected empty choices array, got %s", w.Body.String())
	}
	if got := f.upstream.PageRequests(); got != requests {
		t.Fatalf("expected no listing requests within the freshness window, got %d more", got-requests)
	}
}

func TestDetailsStatusCodes(t *testing.T) {
	f := newFixture(t, "")

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "missing title", target: "/api/anime/details", wantStatus: http.StatusBadRequest, wantCode: "invalid_request", wantMsg: "title query parameter required"},
		{name: "not in list", target: "/api/anime/details?title=Gintama", wantStatus: http.StatusNotFound, wantCode: "not_in_top_list", wantMsg: "'Gintama' is not in the current top anime list."},
		{name: "unavailable", target: "/api/anime/details?title=Bleach", wantStatus: http.StatusBadGateway, wantCode: "details_unavailable", wantMsg: "Could not fetch details for Bleach."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.get(t, tt.target, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			resp := decode[api.ErrorResponse](t, w)
			if resp.Error != tt.wantCode || resp.Message != tt.wantMsg {
				t.Fatalf("unexpected error body %#v", resp)
			}
		})
	}

	w := f.get(t, "/api/anime/details?title=Naruto", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	card := decode[api.DetailsResponse](t, w).Card
	if card.Title != "Naruto" || card.Score != "79" || card.Status != "Finished" || card.Thumbnail != "https://img/large.jpg" {
		t.Fatalf("unexpected card %#v", card)
	}
}

func TestTitlesDoesNotRefresh(t *testing.T) {
	f := newFixture(t, "")
	w := f.get(t, "/api/anime/titles", nil)
	resp := decode[api.TitlesResponse](t, w)
	if resp.Total != 0 || f.upstream.PageRequests() != 0 {
		t.Fatalf("expected empty cache without refresh, got %#v (requests=%d)", resp, f.upstream.PageRequests())
	}

	f.get(t, "/api/anime/suggestions?q=", nil)
	w = f.get(t, "/api/anime/titles?limit=2", nil)
	resp = decode[api.TitlesResponse](t, w)
	if resp.Total != 4 || len(resp.Titles) != 2 || resp.LastRefreshed == "" {
		t.Fatalf("unexpected titles response %#v", resp)
	}

	if w := f.get(t, "/api/anime/titles?limit=-1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d", w.Code)
	}
}

func TestStatusFallsBackToCacheStats(t *testing.T) {
	f := newFixture(t, "")
	f.get(t, "/api/anime/suggestions?q=one", nil)
	status := decode[api.DaemonStatus](t, f.get(t, "/api/status", nil))
	if !status.Running || status.Cache.Titles != 4 || !status.Cache.Fresh {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestBearerToken(t *testing.T) {
	f := newFixture(t, "secret")
	if w := f.get(t, "/api/status", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := f.get(t, "/api/status", map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := f.get(t, "/api/status", map[string]string{"Authorization": "Bearer secret"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := f.get(t, "/metrics", nil); w.Code != http.StatusOK {
		t.Fatalf("metrics should not require auth, got %d", w.Code)
	}
}

func TestMetricsExposeRequests(t *testing.T) {
	f := newFixture(t, "")
	f.get(t, "/api/anime/suggestions?q=naruto", nil)
	body := f.get(t, "/metrics", nil).Body.String()
	for _, want := range []string{
		`animebot_http_requests_total{method="GET",path="/api/anime/suggestions",status="200"} 1`,
		"animebot_cache_titles 4",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, "")
	w := f.get(t, "/api/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if resp := decode[api.ErrorResponse](t, w); resp.Error != "not_found" {
		t.Fatalf("unexpected error body %#v", resp)
	}
}
