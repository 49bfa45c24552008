package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/satchel/pkg/adapters/file"
	"github.com/aretw0/satchel/pkg/adapters/memory"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "0123456789abcdef0123456789abcdef01234567"

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed saves one session with the file backend under dir.
func seed(t *testing.T, dir, id string) {
	t.Helper()
	cfg := config.DefaultFile()
	cfg.SavePath = dir
	s, err := file.New(cfg, memory.NewChannel(id))
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "name", "Ethan"))
	require.NoError(t, s.Close(context.Background()))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "satchel version dev")
}

func TestSessionCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "session", "ls", "--driver", "file", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found")

	seed(t, dir, testID)

	out, err = run(t, "session", "ls", "--driver", "file", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, testID)

	out, err = run(t, "session", "inspect", testID, "--driver", "file", "--dir", dir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ethan"}`, out)

	_, err = run(t, "session", "inspect", "not-an-id", "--driver", "file", "--dir", dir)
	assert.Error(t, err)

	out, err = run(t, "session", "rm", testID, "--driver", "file", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session")
	assert.NoFileExists(t, filepath.Join(dir, testID))

	_, err = run(t, "session", "rm", testID, "--driver", "file", "--dir", dir)
	assert.Error(t, err, "removing a missing session fails")
}

func TestSessionRmAll(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, testID)
	seed(t, dir, "ffffffffffffffffffffffffffffffffffffffff")

	_, err := run(t, "session", "rm", "--all", "--driver", "file", "--dir", dir)
	require.NoError(t, err)

	ids, err := file.List(context.Background(), config.File{SavePath: dir})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSessionGC(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, testID)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, testID), old, old))

	out, err := run(t, "session", "gc", "--driver", "file", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 expired session(s)")
}

func TestLoadConfig_FileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "satchel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: redis\nredis:\n  server: cache:6379\n"), 0o600))

	_, err := run(t, "session", "ls", "--config", path, "--driver", "redis", "--dir", dir)
	assert.ErrorIs(t, err, errFileDriverOnly)
}
