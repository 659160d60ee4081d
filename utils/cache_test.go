package utils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	InitRedis(mr.Addr(), "", 0)
	return mr
}

func TestCacheRoundTrip(t *testing.T) {
	setupMiniredis(t)

	_, ok := CacheGetBytes("cache:feed:limit=10:offset=0")
	assert.False(t, ok, "miss before set")

	CacheSetBytes("cache:feed:limit=10:offset=0", []byte(`{"items":[]}`), time.Minute)
	b, ok := CacheGetBytes("cache:feed:limit=10:offset=0")
	require.True(t, ok)
	assert.Equal(t, `{"items":[]}`, string(b))
}

func TestCacheExpiry(t *testing.T) {
	mr := setupMiniredis(t)

	CacheSetBytes("cache:short", []byte("v"), time.Second)
	mr.FastForward(2 * time.Second)

	_, ok := CacheGetBytes("cache:short")
	assert.False(t, ok, "expired entry is a miss")
}

func TestCacheSetJSON(t *testing.T) {
	setupMiniredis(t)

	CacheSetJSON("cache:user:7", map[string]any{"id": 7, "name": "alex"}, time.Minute)
	b, ok := CacheGetBytes("cache:user:7")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":7,"name":"alex"}`, string(b))
}

func TestInvalidateByPrefix(t *testing.T) {
	setupMiniredis(t)

	CacheSetBytes("cache:feed:limit=10:offset=0", []byte("a"), time.Minute)
	CacheSetBytes("cache:feed:limit=10:offset=10", []byte("b"), time.Minute)
	CacheSetBytes("cache:user:1", []byte("c"), time.Minute)

	InvalidateByPrefix("cache:feed:")

	_, ok := CacheGetBytes("cache:feed:limit=10:offset=0")
	assert.False(t, ok)
	_, ok = CacheGetBytes("cache:feed:limit=10:offset=10")
	assert.False(t, ok)
	_, ok = CacheGetBytes("cache:user:1")
	assert.True(t, ok, "other prefixes survive")
}

func TestTokenBlacklist(t *testing.T) {
	mr := setupMiniredis(t)

	assert.False(t, IsTokenBlacklisted("tok-1"))

	BlacklistToken("tok-1", time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted("tok-1"))
	assert.False(t, IsTokenBlacklisted("tok-2"))

	// Already-expired tokens are not stored at all.
	BlacklistToken("tok-3", time.Now().Add(-time.Minute))
	assert.False(t, IsTokenBlacklisted("tok-3"))

	mr.FastForward(2 * time.Hour)
	assert.False(t, IsTokenBlacklisted("tok-1"), "entry lapses with the token")
}

func TestOAuthStateSingleUse(t *testing.T) {
	setupMiniredis(t)

	SaveState("state-abc", time.Minute)
	assert.True(t, ConsumeState("state-abc"))
	assert.False(t, ConsumeState("state-abc"), "states are single-use")
	assert.False(t, ConsumeState("never-saved"))
}
