// Package daemon coordinates the long-running animebot process.
//
// It wires the title cache, the cron-driven cache warmer and the HTTP API
// server into a single lifecycle with flock-based locking to prevent multiple
// instances sharing one state directory. Close releases the cache's AniList
// connections and the snapshot store.
//
// Keep orchestration logic here: cache semantics live in titlecache and
// request handling in httpapi.
package daemon
