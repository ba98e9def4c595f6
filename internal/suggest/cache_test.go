package suggest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		assert.Equal(t,
			CacheKey("Grow Revenue", "sales", nil),
			CacheKey("  grow revenue ", "Sales", nil),
		)
	})

	t.Run("existing titles are order independent", func(t *testing.T) {
		assert.Equal(t,
			CacheKey("t", "c", []string{"b", "a"}),
			CacheKey("t", "c", []string{"a", "b"}),
		)
	})

	t.Run("existing titles change the key", func(t *testing.T) {
		assert.NotEqual(t,
			CacheKey("t", "c", nil),
			CacheKey("t", "c", []string{"a"}),
		)
	})
}

func TestCacheTTL(t *testing.T) {
	now := time.Now()
	c := NewCache()
	c.now = func() time.Time { return now }

	c.Set("k", []Suggestion{{Title: "s"}})

	_, ok := c.Get("k")
	require.True(t, ok)

	// Just inside the TTL.
	now = now.Add(time.Hour - time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok)

	// Reads must not have refreshed the entry.
	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry past TTL must be a miss")
}

func TestCacheEviction(t *testing.T) {
	now := time.Now()
	c := NewCache()
	c.now = func() time.Time { return now }

	// Fill to capacity with strictly increasing insert times.
	for i := 0; i < defaultCacheCapacity; i++ {
		c.Set(fmt.Sprintf("key-%d", i), nil)
		now = now.Add(time.Millisecond)
	}
	require.Equal(t, defaultCacheCapacity, c.Len())

	// The 201st insert evicts exactly the single oldest entry.
	c.Set("key-overflow", nil)
	assert.Equal(t, defaultCacheCapacity, c.Len())

	_, ok := c.Get("key-0")
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.Get("key-1")
	assert.True(t, ok)

	_, ok = c.Get("key-overflow")
	assert.True(t, ok)
}
