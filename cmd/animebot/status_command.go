package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"animebot/internal/api"
	"animebot/internal/apiclient"
	"animebot/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, cache, and preflight status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := buildStatus(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStatus(status, ctx.apiAddress(), shouldColorize(out)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// buildStatus asks the daemon for its status and falls back to local
// preflight checks when it is not running.
func buildStatus(cmdCtx context.Context, ctx *commandContext) (api.DaemonStatus, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return api.DaemonStatus{}, err
	}
	client, err := ctx.apiClient()
	if err != nil {
		return api.DaemonStatus{}, err
	}

	status, err := client.Status(cmdCtx)
	switch {
	case err == nil:
		if len(status.Checks) == 0 {
			status.Checks = api.FromCheckResults(preflight.RunAll(cmdCtx, cfg))
		}
		return *status, nil
	case errors.Is(err, apiclient.ErrDaemonNotRunning):
		return api.DaemonStatus{
			Running:         false,
			LockFilePath:    cfg.LockPath(),
			AniListEndpoint: cfg.AniList.Endpoint,
			WarmSchedule:    cfg.Cache.WarmSchedule,
			TracingEnabled:  cfg.Tracing.Enabled,
			Checks:          api.FromCheckResults(preflight.RunAll(cmdCtx, cfg)),
		}, nil
	default:
		return api.DaemonStatus{}, err
	}
}

func renderStatus(status api.DaemonStatus, addr string, colorize bool) string {
	var lines []string

	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if status.Running {
		lines = append(lines, renderStatusLine("animebotd", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("animebotd", statusWarn, "Not running (start with `animebot run`)", colorize))
	}
	lines = append(lines,
		renderStatusLine("API", statusInfo, addr, colorize),
		renderStatusLine("AniList", statusInfo, status.AniListEndpoint, colorize),
		renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize),
	)
	if status.SnapshotPath != "" {
		lines = append(lines, renderStatusLine("Snapshot", statusInfo, status.SnapshotPath, colorize))
	}
	schedule := status.WarmSchedule
	if schedule == "" {
		schedule = "disabled"
	}
	lines = append(lines,
		renderStatusLine("Warm schedule", statusInfo, schedule, colorize),
		renderStatusLine("Tracing", statusInfo, yesNo(status.TracingEnabled), colorize),
	)

	if status.Running {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Title Cache", colorize)...)
		lines = append(lines, renderCacheLines(status.Cache, colorize)...)
	}

	if len(status.Checks) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Checks", colorize)...)
		for _, check := range status.Checks {
			kind := statusOK
			if !check.Passed {
				kind = statusError
			}
			lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
		}
	}
	return strings.Join(lines, "\n")
}

func renderCacheLines(cache api.CacheStatus, colorize bool) []string {
	titlesKind := statusOK
	switch {
	case cache.Titles == 0:
		titlesKind = statusWarn
	case !cache.Fresh:
		titlesKind = statusInfo
	}
	freshness := "stale"
	if cache.Fresh {
		freshness = "fresh"
	}
	titles := fmt.Sprintf("%d (%s)", cache.Titles, freshness)
	if cache.RestoredFromDisk {
		titles += ", restored from snapshot"
	}

	lines := []string{
		renderStatusLine("Titles", titlesKind, titles, colorize),
		renderStatusLine("Last refreshed", statusInfo, displayTime(cache.LastRefreshed), colorize),
	}
	if cache.LastResult != "" {
		kind := statusOK
		if cache.LastResult == "failed" {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine("Last refresh", kind,
			fmt.Sprintf("%s, %d pages at %s", cache.LastResult, cache.LastPages, displayTime(cache.LastAttempt)), colorize))
	}
	if cache.ConsecutiveFailures > 0 {
		lines = append(lines, renderStatusLine("Failures", statusError, strconv.Itoa(cache.ConsecutiveFailures)+" consecutive", colorize))
	}
	return lines
}
