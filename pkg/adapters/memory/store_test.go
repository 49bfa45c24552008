package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/satchel/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ReadWriteDestroy(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHandler()
	require.NoError(t, h.Open(ctx, "SATCHELSESSID"))

	data, err := h.Read(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	blob := []byte(`{"k":"v"}`)
	require.NoError(t, h.Write(ctx, "id1", blob))
	blob[0] = 'X'

	data, err = h.Read(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, string(data), "stored blob must be isolated from the caller's slice")

	require.NoError(t, h.Destroy(ctx, "id1"))
	data, err = h.Read(ctx, "id1")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, h.List())
}

func TestHandler_GC(t *testing.T) {
	ctx := context.Background()
	h := memory.NewHandler()

	require.NoError(t, h.Write(ctx, "old", []byte("x")))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, h.Write(ctx, "new", []byte("y")))

	removed, err := h.GC(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"new"}, h.List())
}

func TestChannel(t *testing.T) {
	ch := memory.NewChannel("").WithFingerprint([]byte("cli"))
	assert.Equal(t, "", ch.SessionID())

	ch.SetSessionID("abc")
	assert.Equal(t, "abc", ch.SessionID())
	assert.Equal(t, []string{"abc"}, ch.Emitted())
	assert.Equal(t, []byte("cli"), ch.Fingerprint())
}

func TestHandler_ReadSkipsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	h := memory.NewHandler(
		memory.WithMaxLifetime(time.Minute),
		memory.WithClock(func() time.Time { return now }),
	)

	require.NoError(t, h.Write(ctx, "id1", []byte(`{"k":"v"}`)))

	now = now.Add(time.Minute)
	data, err := h.Read(ctx, "id1")
	require.NoError(t, err)
	assert.NotNil(t, data, "a blob exactly maxLifetime old is still live")

	now = now.Add(time.Second)
	data, err = h.Read(ctx, "id1")
	require.NoError(t, err)
	assert.Nil(t, data)
}
