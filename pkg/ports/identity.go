package ports

// IDChannel carries the session identifier between the caller and a backend,
// conventionally as an HTTP cookie.
type IDChannel interface {
	// SessionID returns the inbound identifier, or "" when none was sent.
	SessionID() string

	// SetSessionID emits a newly established identifier.
	SetSessionID(id string)

	// Fingerprint returns serialized request context mixed into new identifiers.
	Fingerprint() []byte
}
