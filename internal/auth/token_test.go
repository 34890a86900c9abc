package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService("s3cret", time.Hour)
	token, err := svc.Issue("admin-1", true)
	require.NoError(t, err)

	claims, ok := svc.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.True(t, claims.IsAdmin)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyRejectsExpired(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("s3cret", time.Hour).WithClock(fixedClock(start))
	token, err := svc.Issue("admin-1", true)
	require.NoError(t, err)

	_, ok := svc.WithClock(fixedClock(start.Add(59 * time.Minute))).Verify(token)
	assert.True(t, ok)
	_, ok = svc.WithClock(fixedClock(start.Add(61 * time.Minute))).Verify(token)
	assert.False(t, ok)
}

func TestVerifyRejectsTampering(t *testing.T) {
	svc := NewTokenService("s3cret", time.Hour)
	token, err := svc.Issue("admin-1", false)
	require.NoError(t, err)

	other := NewTokenService("different", time.Hour)
	_, ok := other.Verify(token)
	assert.False(t, ok, "wrong secret")

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "admin-1", IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}).SignedString([]byte("x"))
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")
	_, ok = svc.Verify(parts[0] + "." + forgedParts[1] + "." + parts[2])
	assert.False(t, ok, "swapped payload")

	for _, bad := range []string{"", "garbage", "a.b.c", token + "x"} {
		_, ok := svc.Verify(bad)
		assert.False(t, ok, bad)
	}
}

func TestVerifyRejectsNoneAndMissingExpiry(t *testing.T) {
	svc := NewTokenService("s3cret", time.Hour)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "admin-1", IsAdmin: true}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok := svc.Verify(none)
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "admin-1"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, ok = svc.Verify(noExp)
	assert.False(t, ok)
}

func TestResolveSecret(t *testing.T) {
	s, err := ResolveSecret("abc", true)
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	_, err = ResolveSecret("", true)
	assert.ErrorIs(t, err, ErrMissingSecret)

	s, err = ResolveSecret("", false)
	require.NoError(t, err)
	assert.Equal(t, DevelopmentSecret, s)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1", hash)
	assert.True(t, ComparePassword(hash, "Secret1"))
	assert.False(t, ComparePassword(hash, "secret1"))
	assert.False(t, ComparePassword("not-a-hash", "Secret1"))
}
