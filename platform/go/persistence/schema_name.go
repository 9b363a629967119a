package persistence

import (
	"fmt"
	"regexp"
	"strings"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NormalizeSchemaName trims the input and enforces a lowercase snake_case identifier. Blank input
// falls back to DefaultSchema.
func NormalizeSchemaName(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return DefaultSchema, nil
	}

	if !schemaNamePattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid schema name %q: must match ^[a-z][a-z0-9_]*$", trimmed)
	}

	return trimmed, nil
}
