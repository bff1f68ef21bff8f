package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAniList(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAniList() error {
	parsed, err := url.Parse(c.AniList.Endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("anilist.endpoint must be an absolute URL, got %q", c.AniList.Endpoint)
	}
	if c.AniList.RequestTimeoutSeconds <= 0 {
		return errors.New("anilist.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if err := ensurePositiveMap(map[string]int{
		"cache.top_n":             c.Cache.TopN,
		"cache.per_page":          c.Cache.PerPage,
		"cache.freshness_seconds": c.Cache.FreshnessSeconds,
		"cache.suggestion_limit":  c.Cache.SuggestionLimit,
	}); err != nil {
		return err
	}
	if c.Cache.PerPage > c.Cache.TopN {
		return errors.New("cache.per_page must not exceed cache.top_n")
	}
	if c.Cache.PageDelayMillis < 0 {
		return errors.New("cache.page_delay_ms must be >= 0")
	}
	if c.Cache.SnapshotEnabled && strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set when cache.snapshot_enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateTracing() error {
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return errors.New("tracing.sample_rate must be between 0 and 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
