package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddies-social/buddies/config"
)

func TestJWTRoundTrip(t *testing.T) {
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret"})

	token, err := GenerateToken(42, "alex@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "alex@example.com", claims.Email)
}

func TestJWTExpired(t *testing.T) {
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret"})

	token, err := GenerateToken(1, "a@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestJWTWrongSecret(t *testing.T) {
	config.SetForTest(config.AppConfig{JWTSecret: "first-secret"})
	token, err := GenerateToken(1, "a@example.com", time.Hour)
	require.NoError(t, err)

	config.SetForTest(config.AppConfig{JWTSecret: "second-secret"})
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}

func TestUniqueUint(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, UniqueUint([]uint{3, 1, 3, 2, 1}))
	assert.Empty(t, UniqueUint(nil))
}
