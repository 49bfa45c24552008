package sessionid_test

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/sessionid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{strings.Repeat("a", 40), true},
		{"0123456789abcdef0123456789abcdef01234567", true},
		{strings.Repeat("a", 39), false},
		{strings.Repeat("a", 41), false},
		{strings.Repeat("A", 40), false},
		{strings.Repeat("g", 40), false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sessionid.Valid(tt.id), "id %q", tt.id)
	}
}

func TestGenerator_NewID(t *testing.T) {
	var g sessionid.Generator

	a, err := g.NewID([]byte("fingerprint"))
	require.NoError(t, err)
	b, err := g.NewID([]byte("fingerprint"))
	require.NoError(t, err)

	assert.True(t, sessionid.Valid(a))
	assert.True(t, sessionid.Valid(b))
	assert.NotEqual(t, a, b)
}

func TestGenerator_NoRandomness(t *testing.T) {
	g := sessionid.Generator{Reader: failingReader{}}

	_, err := g.NewID(nil)
	assert.ErrorIs(t, err, domain.ErrRandomness)

	_, err = g.RandomString(40)
	assert.ErrorIs(t, err, domain.ErrRandomness)
}

func TestGenerator_RandomString(t *testing.T) {
	var g sessionid.Generator

	s, err := g.RandomString(40)
	require.NoError(t, err)
	assert.Len(t, s, 40)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-Za-z]{40}$`), s)
}

func TestGenerator_RandomStringUsesReader(t *testing.T) {
	g := sessionid.Generator{Reader: bytes.NewReader(make([]byte, 80))}

	s, err := g.RandomString(40)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", 40), s)
}

type fakeChannel struct {
	id      string
	emitted []string
}

func (c *fakeChannel) SessionID() string     { return c.id }
func (c *fakeChannel) SetSessionID(id string) { c.id = id; c.emitted = append(c.emitted, id) }
func (c *fakeChannel) Fingerprint() []byte    { return []byte("test") }

func TestGenerator_Establish(t *testing.T) {
	var g sessionid.Generator
	valid := strings.Repeat("b", 40)

	ch := &fakeChannel{id: valid}
	id, err := g.Establish(ch)
	require.NoError(t, err)
	assert.Equal(t, valid, id)
	assert.Empty(t, ch.emitted, "a valid inbound id is not re-emitted")

	ch = &fakeChannel{id: "../../etc/passwd"}
	id, err = g.Establish(ch)
	require.NoError(t, err)
	assert.True(t, sessionid.Valid(id))
	assert.Equal(t, []string{id}, ch.emitted)
}

func TestGenerator_EstablishNoRandomness(t *testing.T) {
	g := sessionid.Generator{Reader: failingReader{}}
	ch := &fakeChannel{}

	_, err := g.Establish(ch)
	assert.ErrorIs(t, err, domain.ErrRandomness)
	assert.Empty(t, ch.emitted)
}
