package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPackageCacheContract runs a suite of tests to verify that a PackageCache implementation
// adheres to the defined interface contract.
func RunPackageCacheContract(t *testing.T, cache PackageCache) {
	ctx := context.Background()
	key := "contract-pkg-" + time.Now().Format("20060102150405") + "/1.0"

	t.Run("Put and Get", func(t *testing.T) {
		payload := []byte(`{"layouts":{"Header":{}}}`)
		require.NoError(t, cache.Put(ctx, key, payload))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, string(payload), string(got))
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrPackageNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte(`{"v":1}`)))
		require.NoError(t, cache.Put(ctx, key, []byte(`{"v":2}`)))
		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key, []byte(`{}`)))
		require.NoError(t, cache.Delete(ctx, key))
		_, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrPackageNotFound)
	})

	t.Run("Flush", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, key+"-a", []byte(`{}`)))
		require.NoError(t, cache.Put(ctx, key+"-b", []byte(`{}`)))
		require.NoError(t, cache.Flush(ctx))
		_, err := cache.Get(ctx, key+"-a")
		assert.ErrorIs(t, err, domain.ErrPackageNotFound)
		_, err = cache.Get(ctx, key+"-b")
		assert.ErrorIs(t, err, domain.ErrPackageNotFound)
	})
}
