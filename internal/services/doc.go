// Package services defines shared utilities consumed by the title cache, the
// command renderers, and the local HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and command names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper so lower layers can tag
//     failures (upstream, not found, validation) and the API can translate them
//     into consistent status codes.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error classification, observability) stays uniform across the bot.
package services
