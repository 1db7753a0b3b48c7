package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CreativeUnicorns/addonprefs"
)

func TestMemoryCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "pref:user:ext.debug", []byte(`{"value":"true"}`), time.Minute))

	val, err := cache.Get(ctx, "pref:user:ext.debug")
	require.NoError(t, err)
	assert.Equal(t, `{"value":"true"}`, string(val))

	require.NoError(t, cache.Delete(ctx, "pref:user:ext.debug"))
	_, err = cache.Get(ctx, "pref:user:ext.debug")
	assert.ErrorIs(t, err, addonprefs.ErrNotFound)

	assert.NoError(t, cache.Delete(ctx, "never-set"))
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	defer cache.Close()

	value := []byte("abc")
	require.NoError(t, cache.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), 20*time.Millisecond))
	require.NoError(t, cache.Set(ctx, "forever", []byte("v"), 0))

	time.Sleep(40 * time.Millisecond)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, addonprefs.ErrNotFound)
	_, err = cache.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryCache_Sweep(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "a", []byte("1"), time.Millisecond))
	require.NoError(t, cache.Set(ctx, "b", []byte("2"), time.Hour))
	assert.Equal(t, 2, cache.Len())

	cache.sweep(time.Now().Add(time.Minute))
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryCache_Close(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, addonprefs.ErrNotFound)
}

func TestMemoryCache_Concurrency(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	defer cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%26))
			_ = cache.Set(ctx, key, []byte{byte(i)}, time.Minute)
			_, _ = cache.Get(ctx, key)
			if i%5 == 0 {
				_ = cache.Delete(ctx, key)
			}
		}(i)
	}
	wg.Wait()
}
