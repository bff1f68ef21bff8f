// Package titlecache keeps the most popular anime titles in memory.
//
// The cache refreshes itself from AniList on demand: callers asking for
// suggestions or membership trigger a refresh only when the list is empty or
// older than the freshness window, and refreshes never run concurrently. A
// refresh pages through the popularity listing, keeps whatever it gathered if
// a later page fails, and leaves the previous list untouched if it gathered
// nothing. Cache operations never return errors; failures are logged,
// counted, and optionally pushed to ntfy.
package titlecache
