package middleware

import (
	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/metrics"
	"github.com/poisonshell/dream-api/internal/ratelimit"
)

// Guard runs before a resolver. It either rejects the call or continues with next,
// possibly with a derived context.
type Guard func(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error)

// Chain wraps h so that guards run in the order given.
func Chain(h graphql.FieldResolveFn, guards ...Guard) graphql.FieldResolveFn {
	for i := len(guards) - 1; i >= 0; i-- {
		g, next := guards[i], h
		h = func(p graphql.ResolveParams) (interface{}, error) {
			return g(p, next)
		}
	}
	return h
}

// Authenticate requires the claims RequestScope verified and attaches them as
// the call's identity.
func Authenticate() Guard {
	return func(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error) {
		req, ok := RequestFrom(p.Context)
		if !ok || req.Claims == nil {
			return nil, apperr.Unauthenticated()
		}
		p.Context = WithIdentity(p.Context, Identity{UserID: req.Claims.UserID, IsAdmin: req.Claims.IsAdmin})
		return next(p)
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() Guard {
	return func(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error) {
		id, ok := IdentityFrom(p.Context)
		if !ok {
			return nil, apperr.Unauthenticated()
		}
		if !id.IsAdmin {
			return nil, apperr.Forbidden()
		}
		return next(p)
	}
}

// LimitLogin counts every call against the client's login budget.
func LimitLogin(limiter *ratelimit.Limiter, m *metrics.Metrics, log *logrus.Logger) Guard {
	return func(p graphql.ResolveParams, next graphql.FieldResolveFn) (interface{}, error) {
		key := UnknownClient
		if req, ok := RequestFrom(p.Context); ok && req.ClientKey != "" {
			key = req.ClientKey
		}
		d := limiter.Attempt(key)
		m.LoginAttempt(d.Allowed)
		if !d.Allowed {
			log.WithFields(logrus.Fields{
				"client":      key,
				"attempts":    d.Count,
				"retry_after": d.RetryAfter,
			}).Warn("Middleware: login attempt throttled")
			return nil, apperr.RateLimited(d.RetryAfter)
		}
		return next(p)
	}
}
