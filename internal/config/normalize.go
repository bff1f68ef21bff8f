package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAniList()
	c.normalizeCache()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeTracing()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAniList() {
	c.AniList.Endpoint = strings.TrimSpace(c.AniList.Endpoint)
	if c.AniList.Endpoint == "" {
		c.AniList.Endpoint = defaultAniListEndpoint
	}
	c.AniList.UserAgent = strings.TrimSpace(c.AniList.UserAgent)
	if c.AniList.UserAgent == "" {
		c.AniList.UserAgent = defaultAniListUserAgent
	}
	if c.AniList.RequestTimeoutSeconds <= 0 {
		c.AniList.RequestTimeoutSeconds = defaultAniListTimeoutSeconds
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.TopN == 0 {
		c.Cache.TopN = defaultCacheTopN
	}
	if c.Cache.PerPage == 0 {
		c.Cache.PerPage = defaultCachePerPage
	}
	if c.Cache.FreshnessSeconds == 0 {
		c.Cache.FreshnessSeconds = defaultCacheFreshnessSeconds
	}
	if c.Cache.SuggestionLimit == 0 {
		c.Cache.SuggestionLimit = defaultCacheSuggestionLimit
	}
	c.Cache.WarmSchedule = strings.TrimSpace(c.Cache.WarmSchedule)
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("ANIMEBOT_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeTracing() {
	c.Tracing.Endpoint = strings.TrimSpace(c.Tracing.Endpoint)
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = defaultTracingEndpoint
	}
	c.Tracing.ServiceName = strings.TrimSpace(c.Tracing.ServiceName)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultTracingServiceName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
