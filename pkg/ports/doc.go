/*
Package ports defines the interfaces between satchel's backends and their callers.

# Key Interfaces

  - Store: the session operation set (Set/Get/Remove/Clear/SetFlash/HasFlash/GetFlash).
  - IDChannel: where the session identifier comes from and goes to (a cookie over HTTP).
  - SaveHandler: open/read/write/close/destroy/gc callbacks driven by a host session.
  - DistributedLocker: cross-replica locking for host sessions.

RunStoreContract is a reusable test suite every Store implementation runs.
*/
package ports
