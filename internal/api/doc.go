// Package api defines the wire-format types shared by the daemon's HTTP API
// and the CLI client.
//
// DTOs use camelCase JSON tags and RFC3339 timestamps with milliseconds.
// Converters translate title cache statistics, rendered anime cards and
// preflight results so transport code never couples to internal types.
package api
