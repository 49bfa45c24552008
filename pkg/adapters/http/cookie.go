package http

import (
	"encoding/json"
	"net/http"
)

// CookieChannel is a ports.IDChannel carrying the session id in a cookie.
// The cookie is a session cookie (no expiry), scoped to "/" and HttpOnly.
type CookieChannel struct {
	w    http.ResponseWriter
	r    *http.Request
	name string
	id   string
}

// NewCookieChannel reads the inbound id from the cookie called name.
func NewCookieChannel(w http.ResponseWriter, r *http.Request, name string) *CookieChannel {
	ch := &CookieChannel{w: w, r: r, name: name}
	if c, err := r.Cookie(name); err == nil {
		ch.id = c.Value
	}
	return ch
}

// SessionID implements ports.IDChannel.
func (c *CookieChannel) SessionID() string { return c.id }

// SetSessionID emits the cookie. It must run before the response headers are written.
func (c *CookieChannel) SetSessionID(id string) {
	c.id = id
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Fingerprint serializes the request context mixed into new ids.
func (c *CookieChannel) Fingerprint() []byte {
	data, err := json.Marshal(struct {
		RemoteAddr string      `json:"remote_addr"`
		Method     string      `json:"method"`
		URI        string      `json:"uri"`
		Header     http.Header `json:"header"`
	}{
		RemoteAddr: c.r.RemoteAddr,
		Method:     c.r.Method,
		URI:        c.r.RequestURI,
		Header:     c.r.Header,
	})
	if err != nil {
		return []byte(c.r.RemoteAddr)
	}
	return data
}
