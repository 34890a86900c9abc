// Package auth issues and verifies admin identity tokens and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevelopmentSecret signs tokens when no secret is configured outside production.
const DevelopmentSecret = "development_only_secret"

const DefaultTokenTTL = 24 * time.Hour

var ErrMissingSecret = errors.New("JWT_SECRET must be set in production")

type Claims struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// ResolveSecret returns the signing secret to use. An empty secret is a hard
// error in production and falls back to DevelopmentSecret elsewhere.
func ResolveSecret(secret string, production bool) (string, error) {
	if secret != "" {
		return secret, nil
	}
	if production {
		return "", ErrMissingSecret
	}
	return DevelopmentSecret, nil
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs an HS256 token for subject.
func (s *TokenService) Issue(subject string, privileged bool) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  subject,
		IsAdmin: privileged,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify reports the claims of a valid, unexpired token. Any failure yields false.
func (s *TokenService) Verify(token string) (*Claims, bool) {
	if token == "" {
		return nil, false
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}
