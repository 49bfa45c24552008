package domain

// Defaults shared by the backends.
const (
	// DefaultSessionName is the identifier channel name (the cookie name over HTTP).
	DefaultSessionName = "SATCHELSESSID"

	// DefaultExpire is the session lifetime in seconds.
	DefaultExpire = 3600

	// DefaultKeyPrefix namespaces keys in shared backends (redis, host sessions).
	DefaultKeyPrefix = "satchel.session."

	// DefaultFlashKeyPrefix marks flash entries in shared backends.
	DefaultFlashKeyPrefix = "flash."

	// DefaultFileFlashKeyPrefix marks flash entries in the file backend.
	DefaultFileFlashKeyPrefix = "flash:"

	// DefaultServer is the redis endpoint used when none is configured.
	DefaultServer = "127.0.0.1:6379"

	// DefaultGCProbability and DefaultGCDivisor give a 1 in 10000 chance of
	// running garbage collection on every finalize.
	DefaultGCProbability = 1
	DefaultGCDivisor     = 10000

	// TokenKey is the reserved key holding the anti-forgery token.
	TokenKey = ":token"

	// SavePathSuffix is appended to the session name to build the default file directory.
	SavePathSuffix = "_DATA"
)
