/*
Package host implements request-scoped host sessions over a pluggable save handler.

A Manager owns a ports.SaveHandler (process memory, Redis) and hands out one Session
per request. The Session is explicit state the caller carries around: Start loads the
record for the id found on (or emitted to) the identifier channel, Values exposes it,
and Close writes it back.

Reads and writes of one id are serialized by reference-counted local locks, and
optionally by a ports.DistributedLocker across replicas.
*/
package host
