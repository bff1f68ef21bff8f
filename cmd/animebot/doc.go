// Command animebot is the operator CLI for the anime title cache.
//
// `animebot run` hosts the daemon in the foreground. The anime, status and
// test-notify commands talk to a running daemon over its local HTTP API;
// config init and validate work without one.
package main
