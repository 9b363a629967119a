package persistence

import (
	"regexp"
	"strings"
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeSlug lowercases and trims the input, collapses every run of characters outside [a-z0-9]
// into a single hyphen, and strips leading/trailing hyphens. The result is either empty or matches
// ^[a-z0-9]+(?:-[a-z0-9]+)*$. Normalizing an already normalized slug returns it unchanged.
func NormalizeSlug(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	if lowered == "" {
		return ""
	}

	collapsed := slugSeparator.ReplaceAllString(lowered, "-")
	return strings.Trim(collapsed, "-")
}

// IsNormalizedSlug reports whether the value is a non-empty slug already in normalized form.
func IsNormalizedSlug(value string) bool {
	return slugPattern.MatchString(value)
}
