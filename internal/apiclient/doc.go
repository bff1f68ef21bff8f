// Package apiclient is the HTTP client the animebot CLI uses to query a
// running animebotd.
//
// Responses decode into the wire types in internal/api. Non-2xx responses
// surface as *Error, which unwraps to the markers in internal/services so
// callers can branch with errors.Is. A refused connection is reported as
// ErrDaemonNotRunning.
package apiclient
