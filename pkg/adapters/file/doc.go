// Package file is a ports.Store that keeps one file per session on the local filesystem.
//
// A Store starts lazily on its first operation, reading the session id from an
// identifier channel (a cookie, usually) or minting and emitting a new one. The record is
// held in memory and written back by Close under an exclusive OS file lock. Close also
// garbage collects expired files with a configurable probability.
//
// List, Load, Delete and GC work on the save directory without a request and back the
// CLI's session commands.
package file
