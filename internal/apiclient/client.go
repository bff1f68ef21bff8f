package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"animebot/internal/api"
	"animebot/internal/services"
)

// DefaultTimeout bounds a single API call. Details may wait on a full
// AniList refresh inside the daemon.
const DefaultTimeout = 45 * time.Second

// ErrDaemonNotRunning indicates nothing is listening on the API address.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Unwrap maps the HTTP status onto the shared error markers.
func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return services.ErrNotFound
	case e.Status == http.StatusBadRequest:
		return services.ErrValidation
	case e.Status == http.StatusUnauthorized:
		return services.ErrConfiguration
	case e.Status == http.StatusBadGateway, e.Status == http.StatusServiceUnavailable:
		return services.ErrUpstream
	case e.Status == http.StatusGatewayTimeout:
		return services.ErrTimeout
	default:
		return nil
	}
}

// Client talks to a running animebotd over its HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// New builds a client for addr, which may be host:port or a full URL.
func New(addr string, opts ...Option) (*Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("api address is required: %w", services.ErrConfiguration)
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	base, err := url.Parse(addr)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid api address %q: %w", addr, services.ErrConfiguration)
	}
	c := &Client{base: base, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Suggestions returns autocomplete choices for a partial title.
func (c *Client) Suggestions(ctx context.Context, partial string) (*api.SuggestionsResponse, error) {
	var resp api.SuggestionsResponse
	if err := c.get(ctx, "/api/anime/suggestions", url.Values{"q": {partial}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Details returns the rendered card for a title in the top list.
func (c *Client) Details(ctx context.Context, title string) (*api.AnimeCard, error) {
	var resp api.DetailsResponse
	if err := c.get(ctx, "/api/anime/details", url.Values{"title": {title}}, &resp); err != nil {
		return nil, err
	}
	return &resp.Card, nil
}

// Titles lists cached titles without triggering a refresh; limit 0 returns all.
func (c *Client) Titles(ctx context.Context, limit int) (*api.TitlesResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp api.TitlesResponse
	if err := c.get(ctx, "/api/anime/titles", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.get(ctx, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isUnavailable(err) {
			return fmt.Errorf("%s: %w", c.base.Host, ErrDaemonNotRunning)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "apiclient", path, "request timed out", err)
		}
		return services.Wrap(services.ErrTransient, "apiclient", path, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "apiclient", path, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var payload api.ErrorResponse
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT)
}
