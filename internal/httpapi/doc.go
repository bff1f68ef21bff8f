// Package httpapi serves the daemon's local JSON API on a chi router.
//
// Routes expose autocomplete suggestions, detail cards, the cached title list
// and daemon status so a chat-platform adapter (or the CLI) can forward them.
// Every request gets a correlation ID, is logged and counted, and /api routes
// honour an optional bearer token. /healthz and /metrics stay unauthenticated.
package httpapi
