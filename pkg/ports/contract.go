package ports

import (
	"context"
	"testing"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreHarness prepares one physical backend for a contract run and returns a
// constructor of stores over it. Stores built for different namespaces by the
// same constructor must share the physical backend.
type StoreHarness func(t *testing.T) func(ns domain.Namespace) Store

// RunStoreContract runs a suite of tests to verify that a Store implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, harness StoreHarness) {
	ctx := context.Background()
	nsA := domain.Namespace{KeyPrefix: "contract.a.", FlashKeyPrefix: "flash."}
	nsB := domain.Namespace{KeyPrefix: "contract.b.", FlashKeyPrefix: "flash."}

	t.Run("Set and Get", func(t *testing.T) {
		store := harness(t)(nsA)

		require.NoError(t, store.Set(ctx, "name", "Ethan"))
		got, err := store.Get(ctx, "name", "default")
		require.NoError(t, err)
		assert.Equal(t, "Ethan", got)

		require.NoError(t, store.Set(ctx, "name", "Zou"))
		got, err = store.Get(ctx, "name", nil)
		require.NoError(t, err)
		assert.Equal(t, "Zou", got, "Set should overwrite")
	})

	t.Run("Get Missing Returns Default", func(t *testing.T) {
		store := harness(t)(nsA)

		got, err := store.Get(ctx, "missing", "fallback")
		require.NoError(t, err)
		assert.Equal(t, "fallback", got)

		got, err = store.Get(ctx, "missing", nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Remove", func(t *testing.T) {
		store := harness(t)(nsA)
		require.NoError(t, store.Set(ctx, "k", "v"))

		prior, err := store.Remove(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", prior)

		prior, err = store.Remove(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, prior, "second Remove should find nothing")

		got, err := store.Get(ctx, "k", "gone")
		require.NoError(t, err)
		assert.Equal(t, "gone", got)
	})

	t.Run("Flash Is Read Once", func(t *testing.T) {
		store := harness(t)(nsA)
		require.NoError(t, store.SetFlash(ctx, "message", "saved"))

		first, err := store.GetFlash(ctx, "message", "none")
		require.NoError(t, err)
		assert.Equal(t, "saved", first)

		second, err := store.GetFlash(ctx, "message", "none")
		require.NoError(t, err)
		assert.Equal(t, "none", second)
	})

	t.Run("HasFlash Does Not Consume", func(t *testing.T) {
		store := harness(t)(nsA)

		has, err := store.HasFlash(ctx, "notice")
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, store.SetFlash(ctx, "notice", "hello"))
		for i := 0; i < 2; i++ {
			has, err = store.HasFlash(ctx, "notice")
			require.NoError(t, err)
			assert.True(t, has)
		}

		// A flash entry lives under the flash prefix of the regular namespace,
		// so Remove can drop it too.
		_, err = store.Remove(ctx, nsA.FlashKeyPrefix+"notice")
		require.NoError(t, err)
		has, err = store.HasFlash(ctx, "notice")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("Flash And Regular Keys Do Not Collide", func(t *testing.T) {
		store := harness(t)(nsA)
		require.NoError(t, store.Set(ctx, "k", "regular"))
		require.NoError(t, store.SetFlash(ctx, "k", "flash"))

		got, err := store.Get(ctx, "k", nil)
		require.NoError(t, err)
		assert.Equal(t, "regular", got)

		got, err = store.GetFlash(ctx, "k", nil)
		require.NoError(t, err)
		assert.Equal(t, "flash", got)
	})

	t.Run("Clear Keeps Other Namespaces", func(t *testing.T) {
		stores := harness(t)
		a, b := stores(nsA), stores(nsB)

		require.NoError(t, a.Set(ctx, "x", "a-x"))
		require.NoError(t, a.SetFlash(ctx, "y", "a-y"))
		require.NoError(t, b.Set(ctx, "x", "b-x"))

		require.NoError(t, a.Clear(ctx))

		got, err := a.Get(ctx, "x", nil)
		require.NoError(t, err)
		assert.Nil(t, got)
		has, err := a.HasFlash(ctx, "y")
		require.NoError(t, err)
		assert.False(t, has)

		got, err = b.Get(ctx, "x", nil)
		require.NoError(t, err)
		assert.Equal(t, "b-x", got, "Clear must not touch another namespace")
	})

	t.Run("End To End", func(t *testing.T) {
		store := harness(t)(nsA)

		require.NoError(t, store.Set(ctx, "name", "Ethan"))
		got, err := store.Get(ctx, "name", nil)
		require.NoError(t, err)
		assert.Equal(t, "Ethan", got)

		require.NoError(t, store.SetFlash(ctx, "message", "test"))
		has, err := store.HasFlash(ctx, "message")
		require.NoError(t, err)
		assert.True(t, has)

		msg, err := store.GetFlash(ctx, "message", nil)
		require.NoError(t, err)
		assert.Equal(t, "test", msg)

		has, err = store.HasFlash(ctx, "message")
		require.NoError(t, err)
		assert.False(t, has)
	})
}
