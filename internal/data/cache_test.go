package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewResponseCache(time.Minute)
	c.now = func() time.Time { return now }

	key := GenerateCacheKey("AAPL", now.AddDate(0, 0, -30), now)
	c.Set(key, []Bar{{Close: 1}})

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Len(t, got, 1)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(key)
	assert.False(t, ok)

	c.prune()
	assert.Equal(t, 0, c.Len())
}

func TestResponseCache_NilIsDisabled(t *testing.T) {
	var c *ResponseCache
	c.Set("k", []Bar{{Close: 1}})
	_, ok := c.Get("k")
	assert.False(t, ok)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestGenerateCacheKey(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.AddDate(0, 1, 0)
	assert.Equal(t, GenerateCacheKey("AAPL", a, b), GenerateCacheKey("AAPL", a.Add(3*time.Hour), b))
	assert.NotEqual(t, GenerateCacheKey("AAPL", a, b), GenerateCacheKey("MSFT", a, b))
	assert.Len(t, GenerateCacheKey("AAPL", a, b), 64)
}

func TestGetCache_DisabledByDefault(t *testing.T) {
	t.Setenv("ENABLE_BARS_CACHE", "")
	assert.Nil(t, GetCache())
}
