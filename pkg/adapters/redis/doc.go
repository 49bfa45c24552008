// Package redis provides the Redis-backed session pieces: a ports.Store keeping one
// key per entry with its own TTL, a ports.SaveHandler for host sessions, and a
// ports.DistributedLocker.
//
// Connections are lazy. Nothing is dialed until the first operation, which PINGs the
// server and fails with domain.ErrConnect when it is unreachable. A Conn can be shared
// by several stores so one process keeps a single client.
package redis
