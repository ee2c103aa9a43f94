// Package transport provides the HTTP(S) transport used to fetch OTA images.
//
// The transport establishes the connection, sends the request and hands
// back the status code, the declared content length and the unread body.
// Response header receive and per-read body timeouts are enforced here, so
// callers polling the body never block longer than the byte timeout.
//
// # Trust Configuration
//
// HTTPS servers are verified against, in order of precedence:
//   - a single root certificate (WithRootCA)
//   - a certificate bundle (WithCABundle)
//   - the system certificate pool
//
// # Errors
//
// Get wraps ErrConnect, ErrHeaderTimeout or ErrHeader so callers can
// classify failures with errors.Is.
package transport
