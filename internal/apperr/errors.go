// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "internal"
	}
}

const (
	CodeBadUserInput        = "BAD_USER_INPUT"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeDuplicateSlug       = "DUPLICATE_SLUG"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeCategoryHasProducts = "CATEGORY_HAS_PRODUCTS"
	CodeNotFound            = "NOT_FOUND"
	CodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeInternal            = "INTERNAL_SERVER_ERROR"
)

const (
	MsgUnauthenticated = "Not authenticated"
	MsgForbidden       = "Admin privileges required"
	MsgInternal        = "Internal server error"
)

type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Field      string
	RetryAfter int
	Err        error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Extensions is picked up by graphql-go and rendered under "extensions".
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if e.Field != "" {
		ext["field"] = e.Field
	}
	if e.Kind == KindRateLimit {
		ext["retryAfter"] = e.RetryAfter
	}
	return ext
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeBadUserInput, Message: message, Field: field}
}

func Validationf(field, format string, args ...interface{}) *Error {
	return Validation(field, fmt.Sprintf(format, args...))
}

func Unauthenticated() *Error {
	return &Error{Kind: KindAuthentication, Code: CodeUnauthenticated, Message: MsgUnauthenticated}
}

// InvalidCredentials never says which of email or password was wrong.
func InvalidCredentials() *Error {
	return &Error{Kind: KindAuthentication, Code: CodeUnauthenticated, Message: "Invalid credentials"}
}

func Forbidden() *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: MsgForbidden}
}

func ForbiddenMsg(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

func ReferenceNotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func RateLimited(retryAfter int) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Code:       CodeTooManyRequests,
		Message:    fmt.Sprintf("Too many login attempts. Try again in %d seconds.", retryAfter),
		RetryAfter: retryAfter,
	}
}

// Internal hides err from the client; err stays reachable through errors.Unwrap for logging.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: MsgInternal, Err: err}
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Public converts any error into one that is safe to show to a client.
func Public(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
