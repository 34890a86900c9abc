package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// Context keys shared with handlers further down the chain.
const (
	requestIDKey = "request_id"
	// OperationKey is set by the GraphQL handler to name the operation in the access log.
	OperationKey = "graphql_operation"
)

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the id RequestID assigned to c, or "" when it did not run.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger writes one access log line per request once the handler has
// finished. Successful requests log at debug so the GraphQL traffic does not
// drown the service logs.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"client_ip":  c.ClientIP(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if id := RequestIDFrom(c); id != "" {
			fields["request_id"] = id
		}
		if op := c.GetString(OperationKey); op != "" {
			fields["operation"] = op
		}
		entry := logger.WithFields(fields)

		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("HTTP: request failed")
		case status >= http.StatusInternalServerError:
			entry.Error("HTTP: server error")
		case status >= http.StatusBadRequest:
			entry.Warn("HTTP: client error")
		default:
			entry.Debug("HTTP: request served")
		}
	}
}

// CORS answers for origins in allowed; "*" allows any origin.
func CORS(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		ok := false
		for _, o := range allowed {
			if o == "*" || (origin != "" && strings.EqualFold(o, origin)) {
				ok = true
				break
			}
		}

		if ok {
			if origin != "" {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			} else {
				c.Header("Access-Control-Allow-Origin", "*")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
