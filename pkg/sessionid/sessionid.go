// Package sessionid generates and validates session identifiers and random tokens.
package sessionid

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/google/uuid"
)

// Length is the number of hex characters in a session id.
const Length = 40

var idPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Valid reports whether id has the shape of a session id.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// Generator mints session ids and tokens from a random source.
// The zero value uses crypto/rand.
type Generator struct {
	// Reader is the CSPRNG. Nil means crypto/rand.Reader.
	Reader io.Reader
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

func (g Generator) reader() io.Reader {
	if g.Reader == nil {
		return rand.Reader
	}
	return g.Reader
}

func (g Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// NewID hashes the current time, a random integer, a unique token, 32 random
// characters and the caller's fingerprint into a 40-char lowercase hex id.
// There is no weak fallback: a failing random source aborts with ErrRandomness.
func (g Generator) NewID(fingerprint []byte) (string, error) {
	unique, err := uuid.NewRandomFromReader(g.reader())
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRandomness, err)
	}
	random, err := g.RandomString(32)
	if err != nil {
		return "", err
	}

	h := sha1.New()
	h.Write([]byte(strconv.FormatInt(g.now().UnixNano(), 10)))
	h.Write([]byte(strconv.Itoa(10000000 + mrand.IntN(90000000))))
	h.Write([]byte(unique.String()))
	h.Write([]byte(random))
	h.Write(fingerprint)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// RandomString returns n characters drawn from the base64 alphabet without '/', '+' and '='.
func (g Generator) RandomString(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	for sb.Len() < n {
		buf := make([]byte, n*2)
		if _, err := io.ReadFull(g.reader(), buf); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrRandomness, err)
		}
		for _, c := range base64.StdEncoding.EncodeToString(buf) {
			if c == '/' || c == '+' || c == '=' {
				continue
			}
			sb.WriteRune(c)
			if sb.Len() == n {
				break
			}
		}
	}
	return sb.String(), nil
}

// Establish reads the inbound id from ch and returns it when valid. Otherwise it
// mints a new id from the channel's fingerprint and emits it on ch.
func (g Generator) Establish(ch ports.IDChannel) (string, error) {
	if id := ch.SessionID(); Valid(id) {
		return id, nil
	}
	id, err := g.NewID(ch.Fingerprint())
	if err != nil {
		return "", err
	}
	ch.SetSessionID(id)
	return id, nil
}
