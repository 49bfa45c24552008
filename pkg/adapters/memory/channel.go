package memory

import "sync"

// Channel is an in-memory ports.IDChannel, used where no cookie exists
// (tests, CLI tools, background jobs).
type Channel struct {
	mu          sync.Mutex
	id          string
	emitted     []string
	fingerprint []byte
}

// NewChannel creates a channel whose inbound id is id ("" for none).
func NewChannel(id string) *Channel {
	return &Channel{id: id}
}

// WithFingerprint sets the context mixed into generated ids.
func (c *Channel) WithFingerprint(fp []byte) *Channel {
	c.fingerprint = fp
	return c
}

// SessionID implements ports.IDChannel.
func (c *Channel) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// SetSessionID implements ports.IDChannel. The id becomes the inbound id of
// later reads, like a cookie sent back by a browser.
func (c *Channel) SetSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
	c.emitted = append(c.emitted, id)
}

// Fingerprint implements ports.IDChannel.
func (c *Channel) Fingerprint() []byte {
	return c.fingerprint
}

// Emitted returns every id written to the channel, oldest first.
func (c *Channel) Emitted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.emitted...)
}
