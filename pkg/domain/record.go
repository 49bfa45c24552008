package domain

import "strings"

// Record is the key/value state of one session.
type Record map[string]any

// Namespace isolates the keys of one logical store inside a shared physical session.
type Namespace struct {
	KeyPrefix      string
	FlashKeyPrefix string
}

// Key returns the physical key for a logical key.
func (n Namespace) Key(key string) string {
	return n.KeyPrefix + key
}

// FlashKey returns the physical key of a flash entry.
func (n Namespace) FlashKey(key string) string {
	return n.KeyPrefix + n.FlashKeyPrefix + key
}

// Owns reports whether a physical key belongs to this namespace.
// Flash entries are owned too, since they live under the same prefix.
func (n Namespace) Owns(physical string) bool {
	return strings.HasPrefix(physical, n.KeyPrefix)
}

// Clear removes every key owned by the namespace from the record.
func (n Namespace) Clear(r Record) {
	for k := range r {
		if n.Owns(k) {
			delete(r, k)
		}
	}
}

// Take removes a key from the record and returns its prior value.
func (r Record) Take(key string) (any, bool) {
	v, ok := r[key]
	if ok {
		delete(r, key)
	}
	return v, ok
}
