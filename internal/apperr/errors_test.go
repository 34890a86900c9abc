package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensions(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want map[string]interface{}
	}{
		{"validation carries field", Validation("minPrice", "bad"), map[string]interface{}{"code": CodeBadUserInput, "field": "minPrice"}},
		{"rate limit carries retry", RateLimited(42), map[string]interface{}{"code": CodeTooManyRequests, "retryAfter": 42}},
		{"forbidden", Forbidden(), map[string]interface{}{"code": CodeForbidden}},
		{"conflict", Conflict(CodeDuplicateSlug, "dup"), map[string]interface{}{"code": CodeDuplicateSlug}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Extensions())
		})
	}
}

func TestRateLimitedMessage(t *testing.T) {
	assert.Equal(t, "Too many login attempts. Try again in 7 seconds.", RateLimited(7).Error())
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("resolver: %w", NotFound("Product not found"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestPublicHidesInternalDetail(t *testing.T) {
	cause := errors.New("pq: connection refused")
	pub := Public(cause)
	require.NotNil(t, pub)
	assert.Equal(t, MsgInternal, pub.Error())
	assert.Equal(t, CodeInternal, pub.Code)
	assert.ErrorIs(t, pub, cause)

	v := Validation("slug", "Invalid slug")
	assert.Same(t, v, Public(fmt.Errorf("wrap: %w", v)))
	assert.Nil(t, Public(nil))
}
