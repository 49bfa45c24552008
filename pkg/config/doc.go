/*
Package config holds the statically typed configuration of every satchel backend.

Recognized options mirror the classic session settings (savePath, expire, keyPrefix,
flashKeyPrefix, sessionName, server) plus GC tuning. A configuration can come from a
mapping (Decode*), a YAML or JSON file (Load), or SATCHEL_* environment variables
(ApplyEnv). Unknown keys in a mapping are rejected with domain.ErrUnknownOption.

	driver: redis
	redis:
	  server: redis://cache:6379/0
	  expire: 1800
*/
package config
