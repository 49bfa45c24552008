// Package http connects sessions to net/http: a cookie-based identifier channel,
// a middleware opening and finalizing one session per request, and a small JSON
// API over the session used by the serve command.
package http
