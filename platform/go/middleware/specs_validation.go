package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"

	platformauth "github.com/zenGate-Global/palmyra-profiles/platform/go/auth"
)

// ValidateAuthenticationViaSwagger checks that a request carries the credential shape an operation declares.
// Operations listing several schemes pass when any one succeeds; the validator calls this once per scheme.
// Whether the caller is actually an admin is decided later by platformauth.RequireAdmin.
func ValidateAuthenticationViaSwagger(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil {
		return nil
	}

	r := input.RequestValidationInput.Request
	if r == nil {
		return fmt.Errorf("no request in validation input")
	}

	switch input.SecuritySchemeName {
	case "bearerAuth":
		authz := r.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fmt.Errorf("missing or invalid Authorization header")
		}
	case "apiKeyAuth":
		if strings.TrimSpace(r.Header.Get(platformauth.APIKeyHeader)) == "" {
			return fmt.Errorf("missing %s header", platformauth.APIKeyHeader)
		}
	}
	return nil
}
