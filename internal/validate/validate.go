// Package validate holds the input rules shared by the API and the client.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const MinPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// Text trims s and reports whether anything is left.
func Text(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	return trimmed, trimmed != ""
}

// NormalizeUsername trims and lowercases a username candidate.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username reports whether an already normalized username is 3-20 characters
// of lowercase letters, digits and underscores.
func Username(s string) bool {
	return usernamePattern.MatchString(s)
}

// Password reports whether p has at least MinPasswordLength characters.
func Password(p string) bool {
	return utf8.RuneCountInString(p) >= MinPasswordLength
}
