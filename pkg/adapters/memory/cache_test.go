package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/pkg/adapters/memory"
	"github.com/aretw0/viewhost/pkg/ports"
)

func TestMemoryCache_Contract(t *testing.T) {
	ports.RunPackageCacheContract(t, memory.NewCache())
}

func TestMemoryCache_Isolation(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()

	payload := []byte(`{"a":1}`)
	require.NoError(t, cache.Put(ctx, "pkg/1.0", payload))
	payload[0] = 'X'

	got, err := cache.Get(ctx, "pkg/1.0")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	got[0] = 'Y'
	again, err := cache.Get(ctx, "pkg/1.0")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again))
	assert.Equal(t, 1, cache.Len())
}
