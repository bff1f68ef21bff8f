package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"animebot/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ANIMEBOT_API_TOKEN", "")
	t.Setenv("NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "animebot")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.SnapshotPath() != filepath.Join(wantState, "titles.db") {
		t.Fatalf("unexpected snapshot path: %q", cfg.SnapshotPath())
	}
	if cfg.LockPath() != filepath.Join(wantState, "animebotd.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.AniList.Endpoint != "https://graphql.anilist.co" {
		t.Fatalf("unexpected anilist endpoint: %q", cfg.AniList.Endpoint)
	}
	if cfg.AniListTimeout() != 10*time.Second {
		t.Fatalf("expected 10s request timeout, got %v", cfg.AniListTimeout())
	}
	if cfg.Cache.TopN != 500 || cfg.Cache.PerPage != 50 {
		t.Fatalf("unexpected cache sizing: top_n=%d per_page=%d", cfg.Cache.TopN, cfg.Cache.PerPage)
	}
	if cfg.Freshness() != 10*time.Minute {
		t.Fatalf("expected 10m freshness, got %v", cfg.Freshness())
	}
	if cfg.PageDelay() != 200*time.Millisecond {
		t.Fatalf("expected 200ms page delay, got %v", cfg.PageDelay())
	}
	if cfg.Cache.SuggestionLimit != 25 {
		t.Fatalf("expected suggestion limit 25, got %d", cfg.Cache.SuggestionLimit)
	}
	if cfg.API.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.API.Token != "" {
		t.Fatalf("expected empty api token, got %q", cfg.API.Token)
	}
	if cfg.Tracing.Enabled {
		t.Fatal("expected tracing disabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "animebot.toml")

	type payload struct {
		AniList struct {
			Endpoint string `toml:"endpoint"`
		} `toml:"anilist"`
		Cache struct {
			TopN         int    `toml:"top_n"`
			PerPage      int    `toml:"per_page"`
			WarmSchedule string `toml:"warm_schedule"`
		} `toml:"cache"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.AniList.Endpoint = "https://example.com/graphql"
	custom.Cache.TopN = 100
	custom.Cache.PerPage = 25
	custom.Cache.WarmSchedule = "  @every 5m "
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.AniList.Endpoint != "https://example.com/graphql" {
		t.Fatalf("expected endpoint override, got %q", cfg.AniList.Endpoint)
	}
	if cfg.Cache.TopN != 100 || cfg.Cache.PerPage != 25 {
		t.Fatalf("unexpected cache sizing: %+v", cfg.Cache)
	}
	if cfg.Cache.WarmSchedule != "@every 5m" {
		t.Fatalf("expected trimmed warm schedule, got %q", cfg.Cache.WarmSchedule)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.Freshness() != 10*time.Minute {
		t.Fatalf("expected default freshness to survive partial file, got %v", cfg.Freshness())
	}
}

func TestEnvFallbacksApplyWhenFileEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANIMEBOT_API_TOKEN", " env-token ")
	t.Setenv("NTFY_TOPIC", "https://ntfy.example/topic")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Fatalf("expected api token from env, got %q", cfg.API.Token)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/topic" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"relative endpoint", func(c *config.Config) { c.AniList.Endpoint = "graphql" }, "anilist.endpoint"},
		{"zero top n", func(c *config.Config) { c.Cache.TopN = 0 }, "cache.top_n"},
		{"page larger than top n", func(c *config.Config) { c.Cache.PerPage = 600 }, "cache.per_page"},
		{"negative delay", func(c *config.Config) { c.Cache.PageDelayMillis = -1 }, "cache.page_delay_ms"},
		{"sample rate", func(c *config.Config) { c.Tracing.SampleRate = 2 }, "tracing.sample_rate"},
		{"notify timeout", func(c *config.Config) { c.Notifications.RequestTimeout = 0 }, "notifications.request_timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Cache.WarmSchedule != "@every 10m" {
		t.Fatalf("unexpected sample warm schedule: %q", cfg.Cache.WarmSchedule)
	}
}
