package security

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, userID uint64, expiresAt time.Time) string {
	t.Helper()
	claims := &UserClaims{
		UserID: userID,
		Roles:  []string{"staff"},
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	assert.Equal(t, err, nil)
	return raw
}

func TestTokenSource(t *testing.T) {
	raw := signToken(t, 42, time.Now().Add(time.Hour))
	src, err := NewTokenSource(raw)
	assert.Equal(t, err, nil)
	assert.Equal(t, src.Token(), raw)
	assert.Equal(t, src.UserID(), uint64(42))
	assert.Equal(t, src.ExpiringWithin(time.Minute), false)
	assert.Equal(t, src.ExpiringWithin(2*time.Hour), true)
}

func TestTokenSourceNoExpiry(t *testing.T) {
	src, err := NewTokenSource(signToken(t, 1, time.Time{}))
	assert.Equal(t, err, nil)
	assert.Equal(t, src.ExpiringWithin(time.Hour), false)
}

func TestTokenSourceReplace(t *testing.T) {
	src, err := NewTokenSource(signToken(t, 1, time.Now().Add(time.Hour)))
	assert.Equal(t, err, nil)

	err = src.Replace(signToken(t, 2, time.Now().Add(2*time.Hour)))
	assert.Equal(t, err, nil)
	assert.Equal(t, src.UserID(), uint64(2))

	// 坏令牌不替换现状
	err = src.Replace("not-a-token")
	assert.NotEqual(t, err, nil)
	assert.Equal(t, src.UserID(), uint64(2))
}

func TestTokenSourceRejectsEmpty(t *testing.T) {
	_, err := NewTokenSource("")
	assert.NotEqual(t, err, nil)
}
