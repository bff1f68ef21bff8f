// Package config loads, normalizes, and validates animebot configuration data.
//
// It supplies repository defaults (the 500-title cache, 50-title pages, a
// ten-minute freshness window), expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANIMEBOT_API_TOKEN and NTFY_TOPIC. The Config type centralizes every knob the
// daemon and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
