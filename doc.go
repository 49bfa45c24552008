/*
Package satchel is a session storage library with interchangeable backends.

Every backend implements the same small contract (ports.Store): Set, Get, Remove
and Clear for regular values, and SetFlash, HasFlash and GetFlash for one-shot flash
messages. Backends start lazily: the session identity is read from an identifier
channel (usually a cookie) on the first operation, and a new 40-character id is minted
and emitted when none is present.

# Backends

  - file: one file per session under a save directory, written once per request under
    an exclusive OS lock, with probabilistic garbage collection of expired files.
  - redis: one key per entry, each with its own TTL.
  - process: a host session (pkg/host) kept by a save handler in process memory or Redis.

# Usage

A Factory is built once from a config.Config and opens one Session per request.
Sessions must be closed when the request ends; the HTTP middleware in
pkg/adapters/http does that for you.

	cfg := config.Default()
	cfg.File.SavePath = "/var/lib/myapp/sessions"

	f, err := satchel.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close(ctx)

	sess, err := f.Open(ctx, memory.NewChannel(cookieValue))
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close(ctx)

	_ = sess.SetFlash(ctx, "message", "Saved!")
*/
package satchel
