// Package notifications pushes operator alerts to ntfy.
//
// The daemon reports title refreshes that come back empty, and the recovery
// that follows, so an operator learns that autocomplete is serving stale or
// no data. With no topic configured the service is a no-op.
package notifications
