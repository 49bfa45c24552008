package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrRandomness is returned when the CSPRNG cannot produce bytes for an id or token.
var ErrRandomness = errors.New("random source unavailable")

// ErrConnect is returned when a networked backend cannot be reached.
var ErrConnect = errors.New("backend connection failed")

// ErrClosed is returned by operations on a store that has already been finalized.
var ErrClosed = errors.New("session store is closed")

// ErrUnknownOption is returned when a configuration mapping carries a key no backend recognizes.
var ErrUnknownOption = errors.New("unknown configuration option")

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrInvalidSessionID is returned when an id does not have the 40-hex-character shape.
var ErrInvalidSessionID = errors.New("invalid session id")
