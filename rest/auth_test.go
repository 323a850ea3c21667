package rest

import (
	"testing"
	"time"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokens(t *testing.T) {
	const secret = "test-secret"
	now := time.Now()

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := signSession(secret, 42, time.Hour, now)
		require.NoError(t, err)
		id, err := parseSession(secret, token)
		require.NoError(t, err)
		assert.Equal(t, 42, id)
	})
	t.Run("WrongSecret", func(t *testing.T) {
		token, err := signSession(secret, 42, time.Hour, now)
		require.NoError(t, err)
		_, err = parseSession("other-secret", token)
		assert.Error(t, err)
	})
	t.Run("Expired", func(t *testing.T) {
		token, err := signSession(secret, 42, time.Hour, now.Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = parseSession(secret, token)
		assert.Error(t, err)
	})
	t.Run("Garbage", func(t *testing.T) {
		_, err := parseSession(secret, "not-a-token")
		assert.Error(t, err)
	})
	t.Run("UnsignedToken", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{
			Subject:   "42",
			ExpiresAt: now.Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = parseSession(secret, token)
		assert.Error(t, err)
	})
	t.Run("InvalidSubject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
			Subject:   "admin",
			ExpiresAt: now.Add(time.Hour).Unix(),
		}).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = parseSession(secret, token)
		assert.Error(t, err)
	})
}

func TestUserCache(t *testing.T) {
	cache, err := newUserCache(2, time.Minute)
	require.NoError(t, err)

	_, ok := cache.get(1)
	assert.False(t, ok)

	cache.add(&dbmodel.User{ID: 1, Email: "a@example.com"})
	u, ok := cache.get(1)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", u.Email)

	u.Email = "changed@example.com"
	u, ok = cache.get(1)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", u.Email, "cached users are copies")

	cache.remove(1)
	_, ok = cache.get(1)
	assert.False(t, ok)

	expiring, err := newUserCache(2, -time.Second)
	require.NoError(t, err)
	expiring.add(&dbmodel.User{ID: 2})
	_, ok = expiring.get(2)
	assert.False(t, ok)
}
