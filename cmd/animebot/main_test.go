package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"animebot/internal/api"
	"animebot/internal/config"
	"animebot/internal/daemonrun"
	"animebot/internal/logging"
	"animebot/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	upstream   *testsupport.AniListServer
	runtime    *daemonrun.Runtime
	apiAddr    string
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("NTFY_TOPIC", "")
	t.Setenv("ANIMEBOT_API_TOKEN", "")

	upstream := testsupport.NewAniListServer(t, []string{"Naruto", "Naruto Shippuden", "One Piece"})
	upstream.AddDetails("One Piece", map[string]any{
		"id":           21,
		"title":        map[string]any{"romaji": "ONE PIECE", "english": "One Piece"},
		"description":  "Pirates.",
		"averageScore": 88,
		"status":       "RELEASING",
		"siteUrl":      "https://anilist.co/anime/21",
	})
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithAniListEndpoint(upstream.URL)}, opts...)...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	rt, err := daemonrun.Assemble(context.Background(), cfg, logging.NewNop(), "test")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(rt.Close)
	if err := rt.Daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	return &cliTestEnv{
		cfg:        cfg,
		upstream:   upstream,
		runtime:    rt,
		apiAddr:    rt.Daemon.APIAddr(),
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCLIAnimeCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"anime", "suggest", "naruto"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("anime suggest: %v", err)
	}
	if out != "Naruto\nNaruto Shippuden\n" {
		t.Fatalf("unexpected suggestions %q", out)
	}

	out, _, err = runCLI(t, []string{"anime", "suggest", "zzz"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("anime suggest zzz: %v", err)
	}
	if !strings.Contains(out, "No matching titles") {
		t.Fatalf("unexpected output %q", out)
	}

	out, _, err = runCLI(t, []string{"anime", "details", "One", "Piece"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("anime details: %v", err)
	}
	for _, want := range []string{"One Piece", "https://anilist.co/anime/21", "Score: 88", "Episodes: Unknown", "Status: Releasing", "Pirates."} {
		if !strings.Contains(out, want) {
			t.Fatalf("details output missing %q: %q", want, out)
		}
	}

	_, _, err = runCLI(t, []string{"anime", "details", "Gintama"}, env.apiAddr, env.configPath)
	if err == nil || err.Error() != "'Gintama' is not in the current top anime list." {
		t.Fatalf("expected not-in-list error, got %v", err)
	}

	out, _, err = runCLI(t, []string{"anime", "titles", "--json"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("anime titles: %v", err)
	}
	var titles api.TitlesResponse
	if err := json.Unmarshal([]byte(out), &titles); err != nil {
		t.Fatalf("decode titles: %v", err)
	}
	if titles.Total != 3 || titles.Titles[2] != "One Piece" {
		t.Fatalf("unexpected titles %#v", titles)
	}

	out, _, err = runCLI(t, []string{"anime", "titles", "-n", "2"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("anime titles table: %v", err)
	}
	if !strings.Contains(out, "Showing 2 of 3 titles") {
		t.Fatalf("unexpected titles table %q", out)
	}
}

func TestCLIStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	deadline := time.Now().Add(3 * time.Second)
	for env.runtime.Daemon.Status(context.Background()).Cache.Titles == 0 {
		if time.Now().After(deadline) {
			t.Fatal("warm-up never populated the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}

	out, _, err := runCLI(t, []string{"status"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Running (pid", "Titles:", "3 (fresh)", "== Checks ==", "AniList"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, ansiReset) {
		t.Fatal("expected no colour when stdout is not a terminal")
	}
}

func TestCLIStatusWhenDaemonStopped(t *testing.T) {
	env := setupCLITestEnv(t)
	env.runtime.Daemon.Stop()

	out, _, err := runCLI(t, []string{"status", "--json"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Running || len(status.Checks) == 0 {
		t.Fatalf("expected offline status with local checks, got %#v", status)
	}

	_, _, err = runCLI(t, []string{"anime", "suggest", "x"}, env.apiAddr, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "animebot run") {
		t.Fatalf("expected daemon-not-running hint, got %v", err)
	}
}

func TestCLIToken(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIToken("secret"))

	if _, _, err := runCLI(t, []string{"anime", "suggest", "one"}, env.apiAddr, env.configPath); err != nil {
		t.Fatalf("expected token from config to authenticate: %v", err)
	}

	otherConfig := filepath.Join(testsupport.BaseDir(env.cfg), "no-token.toml")
	cfg := *env.cfg
	cfg.API.Token = ""
	writeTestConfig(t, otherConfig, &cfg)
	if _, _, err := runCLI(t, []string{"anime", "suggest", "one"}, env.apiAddr, otherConfig); err == nil {
		t.Fatal("expected unauthorized error without token")
	}
}

func TestCLIConfigCommands(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "animebot.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected second init to refuse overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, "", target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, target) {
		t.Fatalf("unexpected validate output %q", out)
	}
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NTFY_TOPIC", "")
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, cfg)

	out, _, err := runCLI(t, []string{"test-notify"}, "", path)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "ntfy topic not configured") {
		t.Fatalf("unexpected output %q", out)
	}
}
