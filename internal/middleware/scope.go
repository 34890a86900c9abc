package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poisonshell/dream-api/internal/auth"
	"github.com/poisonshell/dream-api/internal/loader"
)

// UnknownClient is the rate limit key used when no client address is known.
const UnknownClient = "unknown"

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, bool)
}

// Request is built once per HTTP request before any resolver runs and is not
// modified afterwards. Guards that learn more derive a child context instead.
type Request struct {
	// Token is the bearer credential, empty when absent or malformed.
	Token string
	// Claims holds the result of verifying Token once; nil when unauthenticated.
	Claims    *auth.Claims
	ClientKey string
	Loaders   *loader.Set
}

// Identity is attached by Authenticate.
type Identity struct {
	UserID  string
	IsAdmin bool
}

type requestKey struct{}

type identityKey struct{}

func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func RequestFrom(ctx context.Context) (*Request, bool) {
	r, ok := ctx.Value(requestKey{}).(*Request)
	return r, ok && r != nil
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" header value.
func ParseBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ClientKey picks the rate limit key for r. The first X-Forwarded-For entry is
// used only when trustForwarded is set, because the header is client controlled.
func ClientKey(r *http.Request, remoteIP string, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	if remoteIP != "" {
		return remoteIP
	}
	return UnknownClient
}

// NewRequest builds the per-request scope from an incoming HTTP request.
func NewRequest(r *http.Request, remoteIP string, tokens TokenVerifier, loaders *loader.Set, trustForwarded bool) *Request {
	req := &Request{
		ClientKey: ClientKey(r, remoteIP, trustForwarded),
		Loaders:   loaders,
	}
	if token, ok := ParseBearer(r.Header.Get("Authorization")); ok {
		req.Token = token
		if claims, ok := tokens.Verify(token); ok {
			req.Claims = claims
		}
	}
	return req
}

// RequestScope attaches a fresh Request, with its own loaders, to every request.
func RequestScope(tokens TokenVerifier, newLoaders func() *loader.Set, trustForwarded bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := NewRequest(c.Request, c.RemoteIP(), tokens, newLoaders(), trustForwarded)
		c.Request = c.Request.WithContext(WithRequest(c.Request.Context(), req))
		c.Next()
	}
}
