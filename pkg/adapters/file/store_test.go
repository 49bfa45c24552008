package file_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/satchel/pkg/adapters/file"
	"github.com/aretw0/satchel/pkg/adapters/memory"
	"github.com/aretw0/satchel/pkg/codec"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/aretw0/satchel/pkg/sessionid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const knownID = "0123456789abcdef0123456789abcdef01234567"

func testConfig(t *testing.T) config.File {
	cfg := config.DefaultFile()
	cfg.SavePath = t.TempDir()
	return cfg
}

func never(int) int { return 1 << 30 }

func always(int) int { return 0 }

func newStore(t *testing.T, cfg config.File, ch ports.IDChannel, opts ...file.Option) *file.Store {
	t.Helper()
	opts = append([]file.Option{file.WithRoll(never)}, opts...)
	s, err := file.New(cfg, ch, opts...)
	require.NoError(t, err)
	return s
}

func TestFileStore_Contract(t *testing.T) {
	ports.RunStoreContract(t, func(t *testing.T) func(domain.Namespace) ports.Store {
		s := newStore(t, testConfig(t), memory.NewChannel(""))
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s.Scope
	})
}

func TestFileStore_New_CreatesDirectory(t *testing.T) {
	cfg := config.DefaultFile()
	cfg.SavePath = filepath.Join(t.TempDir(), "nested", "sessions")

	s := newStore(t, cfg, memory.NewChannel(""))

	info, err := os.Stat(cfg.SavePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, filepath.IsAbs(s.Dir()))
}

func TestFileStore_New_ExistingDirectory(t *testing.T) {
	cfg := testConfig(t)
	_, err := file.New(cfg, memory.NewChannel(""))
	require.NoError(t, err)
	_, err = file.New(cfg, memory.NewChannel(""))
	require.NoError(t, err, "an existing directory is not an error")
}

func TestFileStore_New_NilChannel(t *testing.T) {
	_, err := file.New(testConfig(t), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestFileStore_LazyStart(t *testing.T) {
	ctx := context.Background()
	ch := memory.NewChannel("")
	s := newStore(t, testConfig(t), ch)

	assert.Empty(t, s.ID(), "no identity before the first operation")
	assert.Empty(t, ch.Emitted())

	_, err := s.Get(ctx, "anything", nil)
	require.NoError(t, err)

	require.Len(t, ch.Emitted(), 1)
	assert.True(t, sessionid.Valid(s.ID()))
	assert.Equal(t, s.ID(), ch.Emitted()[0])
}

func TestFileStore_UsesValidInboundID(t *testing.T) {
	ctx := context.Background()
	ch := memory.NewChannel(knownID)
	s := newStore(t, testConfig(t), ch)

	require.NoError(t, s.Set(ctx, "k", "v"))
	assert.Equal(t, knownID, s.ID())
	assert.Empty(t, ch.Emitted(), "a valid cookie is not re-emitted")
}

func TestFileStore_ReplacesInvalidInboundID(t *testing.T) {
	ctx := context.Background()
	ch := memory.NewChannel("../../etc/passwd")
	s := newStore(t, testConfig(t), ch)

	require.NoError(t, s.Set(ctx, "k", "v"))
	assert.NotEqual(t, "../../etc/passwd", s.ID())
	assert.True(t, sessionid.Valid(s.ID()))
	assert.Equal(t, []string{s.ID()}, ch.Emitted())
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	ch := memory.NewChannel("")

	first := newStore(t, cfg, ch)
	require.NoError(t, first.Set(ctx, "name", "Ethan"))
	require.NoError(t, first.SetFlash(ctx, "message", "saved"))
	require.NoError(t, first.Close(ctx))

	// The channel now carries the emitted id, as a browser would return the cookie.
	second := newStore(t, cfg, ch)
	name, err := second.Get(ctx, "name", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ethan", name)

	msg, err := second.GetFlash(ctx, "message", nil)
	require.NoError(t, err)
	assert.Equal(t, "saved", msg)
	require.NoError(t, second.Close(ctx))

	third := newStore(t, cfg, ch)
	has, err := third.HasFlash(ctx, "message")
	require.NoError(t, err)
	assert.False(t, has, "a consumed flash is gone after persisting")
}

func TestFileStore_ExpiredFileReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Expire = 60
	ch := memory.NewChannel("")

	first := newStore(t, cfg, ch)
	require.NoError(t, first.Set(ctx, "name", "Ethan"))
	require.NoError(t, first.Close(ctx))

	path := filepath.Join(cfg.SavePath, ch.SessionID())
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	second := newStore(t, cfg, ch)
	name, err := second.Get(ctx, "name", "stranger")
	require.NoError(t, err)
	assert.Equal(t, "stranger", name)
	assert.Equal(t, ch.SessionID(), second.ID(), "the id survives, the data does not")

	// A fresh file within expire is still served.
	require.NoError(t, second.Set(ctx, "name", "Ada"))
	require.NoError(t, second.Close(ctx))

	third := newStore(t, cfg, ch)
	name, err = third.Get(ctx, "name", "stranger")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SavePath, knownID), []byte("{not json"), 0o600))

	s := newStore(t, cfg, memory.NewChannel(knownID))
	got, err := s.Get(ctx, "anything", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", got)

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close(ctx))

	record, err := file.Load(ctx, cfg, knownID, nil)
	require.NoError(t, err)
	assert.Equal(t, "v", record["k"])
}

func TestFileStore_Close(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	t.Run("Unstarted Store Writes Nothing", func(t *testing.T) {
		s := newStore(t, cfg, memory.NewChannel(""))
		require.NoError(t, s.Close(ctx))

		ids, err := file.List(ctx, cfg)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Second Close Is A No-op", func(t *testing.T) {
		s := newStore(t, cfg, memory.NewChannel(knownID))
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Close(ctx))

		require.NoError(t, file.Delete(ctx, cfg, knownID))
		require.NoError(t, s.Close(ctx))

		_, err := file.Load(ctx, cfg, knownID, nil)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "second Close must not write again")
	})

	t.Run("Operations After Close Fail", func(t *testing.T) {
		s := newStore(t, cfg, memory.NewChannel(""))
		require.NoError(t, s.Close(ctx))

		assert.ErrorIs(t, s.Set(ctx, "k", "v"), domain.ErrClosed)
		_, err := s.Get(ctx, "k", nil)
		assert.ErrorIs(t, err, domain.ErrClosed)
		_, err = s.GetFlash(ctx, "k", nil)
		assert.ErrorIs(t, err, domain.ErrClosed)
	})
}

func TestFileStore_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a := newStore(t, cfg, memory.NewChannel(knownID))
	b := newStore(t, cfg, memory.NewChannel(knownID))

	require.NoError(t, a.Set(ctx, "from", "a"))
	require.NoError(t, a.Set(ctx, "only-a", true))
	require.NoError(t, b.Set(ctx, "from", "b"))

	require.NoError(t, a.Close(ctx))
	require.NoError(t, b.Close(ctx))

	record, err := file.Load(ctx, cfg, knownID, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", record["from"])
	assert.NotContains(t, record, "only-a", "updates of the first writer are lost")
}

func TestFileStore_ConcurrentWritersNeverTear(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := file.New(cfg, memory.NewChannel(knownID), file.WithRoll(never))
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, s.Set(ctx, "writer", float64(i)))
			assert.NoError(t, s.Close(ctx))
		}(i)
	}
	wg.Wait()

	record, err := file.Load(ctx, cfg, knownID, nil)
	require.NoError(t, err, "the file must always hold one complete record")
	assert.Contains(t, record, "writer")
}

func TestFileStore_EncryptedCodec(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	key := bytes.Repeat([]byte{7}, 32)
	enc, err := codec.NewEncrypted(codec.JSON{}, codec.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)

	s := newStore(t, cfg, memory.NewChannel(knownID), file.WithCodec(enc))
	require.NoError(t, s.Set(ctx, "secret", "plain"))
	require.NoError(t, s.Close(ctx))

	raw, err := os.ReadFile(filepath.Join(cfg.SavePath, knownID))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plain")

	record, err := file.Load(ctx, cfg, knownID, enc)
	require.NoError(t, err)
	assert.Equal(t, "plain", record["secret"])
}

func TestFileStore_CloseRollsGC(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	stale := filepath.Join(cfg.SavePath, "ffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o600))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	skipped := newStore(t, cfg, memory.NewChannel(""))
	require.NoError(t, skipped.Set(ctx, "k", "v"))
	require.NoError(t, skipped.Close(ctx))
	assert.FileExists(t, stale, "GC must not run when the roll misses")

	ran := newStore(t, cfg, memory.NewChannel(""), file.WithRoll(always))
	require.NoError(t, ran.Set(ctx, "k", "v"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, ran.Close(cancelled))
	assert.NoFileExists(t, stale, "GC on Close ignores caller cancellation")
	assert.FileExists(t, filepath.Join(cfg.SavePath, ran.ID()))
}
