// Package validation holds the pure checks applied to untrusted scalar input
// before it reaches query construction or storage.
package validation

import (
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var sortFields = map[string]struct{}{
	"name":        {},
	"price":       {},
	"createdAt":   {},
	"stockStatus": {},
	"category":    {},
}

var searchStripper = strings.NewReplacer(`'`, "", `"`, "", `\`, "", ";", "")

var commentStripper = strings.NewReplacer("--", "", "/*", "", "*/", "")

// IsWellFormedID accepts only the canonical 36-character hyphenated UUID form.
func IsWellFormedID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// SanitizeSearchTerm strips quotes, backslashes, semicolons and comment
// delimiters. Stripping repeats until the output is stable so that removing
// one delimiter cannot join its neighbours into a new one ("-/**/-").
func SanitizeSearchTerm(s string) string {
	out := searchStripper.Replace(s)
	for {
		next := commentStripper.Replace(out)
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}

func SanitizeCategoryToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func IsAllowedSortField(s string) bool {
	_, ok := sortFields[s]
	return ok
}

func IsAllowedSortOrder(s string) bool {
	u := strings.ToUpper(s)
	return u == "ASC" || u == "DESC"
}

func IsFiniteNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func IsValidEmail(s string) bool {
	if s == "" || len(s) > MaxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// IsValidImageURL requires an absolute http(s) URL with a host.
func IsValidImageURL(s string) bool {
	if len(s) > MaxImageURLLength {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// LengthBetween counts runes, not bytes.
func LengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// PasswordProblem returns a human readable reason the password is rejected,
// or "" when it is acceptable.
func PasswordProblem(p string) string {
	n := utf8.RuneCountInString(p)
	if n < MinPasswordLength {
		return "Password must be at least 6 characters"
	}
	if n > MaxPasswordLength {
		return "Password must be less than 100 characters"
	}
	if len(p) > MaxPasswordBytes {
		return "Password must be at most 72 bytes"
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	}
	return ""
}
