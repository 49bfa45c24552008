// Package middleware wraps a ports.Store with cross-cutting behavior: Prometheus
// metrics and structured logging with masking of sensitive values.
package middleware
