package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"animebot/internal/config"
)

const userAgent = "animebot/0.1"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyRefreshFailed(ctx context.Context, previousTitles int, lastRefreshed time.Time) error
	NotifyRefreshRecovered(ctx context.Context, titles int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:        topic,
		client:          &http.Client{Timeout: timeout},
		refreshFailures: cfg.Notifications.RefreshFailures,
	}
}

// NewNoop returns a Service that discards every notification.
func NewNoop() Service {
	return noopService{}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint        string
	client          *http.Client
	refreshFailures bool
}

func (n *ntfyService) NotifyRefreshFailed(ctx context.Context, previousTitles int, lastRefreshed time.Time) error {
	if !n.refreshFailures {
		return nil
	}
	message := "❌ AniList refresh returned no titles"
	if previousTitles > 0 && !lastRefreshed.IsZero() {
		message = fmt.Sprintf("%s\nServing %d cached titles from %s", message, previousTitles, lastRefreshed.UTC().Format(time.RFC3339))
	} else {
		message += "\nNo cached titles available; suggestions are empty"
	}
	data := payload{
		title:    "animebot - Refresh Failed",
		message:  message,
		tags:     []string{"animebot", "refresh", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRefreshRecovered(ctx context.Context, titles int) error {
	if !n.refreshFailures {
		return nil
	}
	data := payload{
		title:   "animebot - Refresh Recovered",
		message: fmt.Sprintf("✅ AniList refresh succeeded: %d titles cached", titles),
		tags:    []string{"animebot", "refresh", "recovered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "animebot - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"animebot", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRefreshFailed(context.Context, int, time.Time) error { return nil }
func (noopService) NotifyRefreshRecovered(context.Context, int) error         { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
