package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"animebot/internal/services"
)

// DefaultEndpoint is the public AniList GraphQL endpoint.
const DefaultEndpoint = "https://graphql.anilist.co"

// ErrNotFound reports that the detail query matched no media.
var ErrNotFound = fmt.Errorf("anilist: media: %w", services.ErrNotFound)

// Source defines the AniList operations used by the title cache.
type Source interface {
	PopularPage(ctx context.Context, page, perPage int) ([]Media, error)
	Details(ctx context.Context, search string) (*MediaDetails, error)
	Close() error
}

// Client talks to the AniList GraphQL API.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	tracer     trace.Tracer
}

var _ Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEndpoint overrides the GraphQL endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// WithTimeout replaces the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates an AniList client.
func New(opts ...Option) (*Client, error) {
	client := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tracer:     otel.Tracer("animebot/anilist"),
	}
	for _, opt := range opts {
		opt(client)
	}
	parsed, err := url.Parse(client.endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("anilist endpoint %q must be an absolute URL", client.endpoint)
	}
	return client, nil
}

// Endpoint returns the GraphQL endpoint in use.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// PopularPage fetches one page of anime ordered by popularity, most popular first.
func (c *Client) PopularPage(ctx context.Context, page, perPage int) ([]Media, error) {
	if page < 1 || perPage < 1 {
		return nil, services.Wrap(services.ErrValidation, "anilist", "popular page", fmt.Sprintf("invalid paging page=%d per_page=%d", page, perPage), nil)
	}
	ctx, span := c.tracer.Start(ctx, "anilist.page", trace.WithAttributes(
		attribute.Int("anilist.page", page),
		attribute.Int("anilist.per_page", perPage),
	))
	defer span.End()

	var payload pageResponse
	err := c.post(ctx, popularQuery, map[string]any{"page": page, "perPage": perPage}, &payload)
	hasPage := payload.Data != nil && payload.Data.Page != nil
	if err == nil && !hasPage {
		err = graphQLErrors(payload.Errors)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("anilist page %d: %w", page, err)
	}
	if !hasPage {
		return nil, nil
	}
	if len(payload.Errors) > 0 {
		span.AddEvent("anilist.partial_errors", trace.WithAttributes(
			attribute.String("anilist.errors", graphQLErrors(payload.Errors).Error()),
		))
	}
	span.SetAttributes(attribute.Int("anilist.media_count", len(payload.Data.Page.Media)))
	return payload.Data.Page.Media, nil
}

// Details runs the detail query for search and returns the matched media.
// ErrNotFound is returned when AniList reports no match.
func (c *Client) Details(ctx context.Context, search string) (*MediaDetails, error) {
	ctx, span := c.tracer.Start(ctx, "anilist.details", trace.WithAttributes(
		attribute.String("anilist.search", search),
	))
	defer span.End()

	var payload detailResponse
	err := c.post(ctx, detailQuery, map[string]any{"search": search}, &payload)
	if err == nil && (payload.Data == nil || payload.Data.Media == nil) {
		// AniList answers an unmatched search with a 404 error entry and null Media.
		if gqlErr := graphQLErrors(payload.Errors); gqlErr != nil && !allNotFound(payload.Errors) {
			err = gqlErr
		} else {
			err = ErrNotFound
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("anilist details %q: %w", search, err)
	}
	return payload.Data.Media, nil
}

// Ping issues a minimal query to confirm the endpoint answers GraphQL.
func (c *Client) Ping(ctx context.Context) error {
	var payload struct {
		Errors []graphQLError `json:"errors"`
	}
	if err := c.post(ctx, pingQuery, map[string]any{}, &payload); err != nil {
		return err
	}
	return graphQLErrors(payload.Errors)
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "anilist", "request", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Detail misses come back as 404 with a JSON body; let the caller inspect it.
		return decodeBody(resp.Body, out)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrUpstream, "anilist", "request",
			fmt.Sprintf("status %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(snippet))), nil)
	}
	return decodeBody(resp.Body, out)
}

func decodeBody(body io.Reader, out any) error {
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode anilist response: %w", err)
	}
	return nil
}

func graphQLErrors(errs []graphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	return services.Wrap(services.ErrUpstream, "anilist", "graphql", strings.Join(messages, "; "), nil)
}

func allNotFound(errs []graphQLError) bool {
	for _, e := range errs {
		if e.Status != http.StatusNotFound {
			return false
		}
	}
	return true
}
