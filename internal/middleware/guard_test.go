package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/auth"
	"github.com/poisonshell/dream-api/internal/ratelimit"
)

type stubVerifier map[string]*auth.Claims

func (s stubVerifier) Verify(token string) (*auth.Claims, bool) {
	c, ok := s[token]
	return c, ok
}

var tokens = stubVerifier{
	"admin-token": {UserID: "a1", IsAdmin: true},
	"user-token":  {UserID: "u1", IsAdmin: false},
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// scoped mirrors NewRequest: the token is verified once when the scope is built.
func scoped(token string) *Request {
	claims, _ := tokens.Verify(token)
	return &Request{Token: token, Claims: claims}
}

func paramsFor(req *Request) graphql.ResolveParams {
	ctx := context.Background()
	if req != nil {
		ctx = WithRequest(ctx, req)
	}
	return graphql.ResolveParams{Context: ctx}
}

func recordingBody(ran *bool) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		*ran = true
		id, _ := IdentityFrom(p.Context)
		return id.UserID, nil
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Guard {
		return func(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error) {
			order = append(order, name)
			return next(p)
		}
	}
	h := Chain(func(graphql.ResolveParams) (interface{}, error) {
		order = append(order, "body")
		return nil, nil
	}, mark("first"), mark("second"))

	_, err := h(paramsFor(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "body"}, order)
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr apperr.Kind
		wantID  string
	}{
		{"no request scope", nil, apperr.KindAuthentication, ""},
		{"no token", &Request{}, apperr.KindAuthentication, ""},
		{"bad token", scoped("forged"), apperr.KindAuthentication, ""},
		{"token without verified claims", &Request{Token: "user-token"}, apperr.KindAuthentication, ""},
		{"valid token", scoped("user-token"), apperr.KindInternal, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			h := Chain(recordingBody(&ran), Authenticate())
			out, err := h(paramsFor(tt.req))
			if tt.wantID == "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, apperr.KindOf(err))
				assert.False(t, ran, "body must not run")
				return
			}
			require.NoError(t, err)
			assert.True(t, ran)
			assert.Equal(t, tt.wantID, out)
		})
	}
}

type countingVerifier struct {
	calls int
}

func (c *countingVerifier) Verify(token string) (*auth.Claims, bool) {
	c.calls++
	return tokens.Verify(token)
}

func TestAuthenticateReusesScopeVerification(t *testing.T) {
	verifier := &countingVerifier{}
	r := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	r.Header.Set("Authorization", "Bearer admin-token")
	req := NewRequest(r, "192.0.2.1", verifier, nil, false)

	ran := false
	h := Chain(recordingBody(&ran), Authenticate(), RequireAdmin())
	out, err := h(paramsFor(req))
	require.NoError(t, err)
	assert.Equal(t, "a1", out)
	assert.Equal(t, 1, verifier.calls)
}

func TestRequireAdmin(t *testing.T) {
	ran := false
	h := Chain(recordingBody(&ran), Authenticate(), RequireAdmin())

	_, err := h(paramsFor(scoped("user-token")))
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	assert.Equal(t, apperr.MsgForbidden, err.Error())
	assert.False(t, ran)

	out, err := h(paramsFor(scoped("admin-token")))
	require.NoError(t, err)
	assert.Equal(t, "a1", out)

	ran = false
	alone := Chain(recordingBody(&ran), RequireAdmin())
	_, err = alone(paramsFor(scoped("admin-token")))
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err), "identity must come from Authenticate")
	assert.False(t, ran)
}

func TestLimitLogin(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(time.Minute, 2, ratelimit.WithClock(func() time.Time { return now }))
	calls := 0
	h := Chain(func(graphql.ResolveParams) (interface{}, error) {
		calls++
		return nil, apperr.InvalidCredentials()
	}, LimitLogin(limiter, nil, quietLogger()))

	req := &Request{ClientKey: "203.0.113.9"}
	for i := 0; i < 2; i++ {
		_, err := h(paramsFor(req))
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err), "failed logins still pass the limiter")
	}
	_, err := h(paramsFor(req))
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindRateLimit, appErr.Kind)
	assert.Equal(t, 60, appErr.RetryAfter)
	assert.Equal(t, 2, calls)

	_, err = h(paramsFor(&Request{ClientKey: "198.51.100.1"}))
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err), "other clients are unaffected")

	_, err = h(paramsFor(nil))
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	_, _ = h(paramsFor(nil))
	_, err = h(paramsFor(nil))
	assert.Equal(t, apperr.KindRateLimit, apperr.KindOf(err), "requests without a scope share the unknown bucket")
}
