/*
Package domain contains the core types of satchel, kept free of I/O.

# Key Entities

  - Record: the key/value state of one session.
  - Namespace: the key prefix and flash prefix that let several logical stores share
    one physical session without collision.
  - Sentinel errors shared by every backend (ErrRandomness, ErrConnect, ErrClosed, ...).
*/
package domain
