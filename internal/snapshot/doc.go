// Package snapshot keeps the most recent successful title refresh on disk.
//
// The store is a single SQLite table holding one ordered title list and the
// time it was fetched. The daemon loads it at startup so suggestions work
// before the first network refresh completes; the freshness window still
// decides when that refresh happens.
package snapshot
