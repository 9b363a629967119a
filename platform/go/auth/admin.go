package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader carries a shared admin key for tooling that has no user identity.
const APIKeyHeader = "X-Admin-Api-Key"

const ctxAPIKeyAuthorized ctxKey = "PALMYRA_ADMIN_API_KEY"

// AuthorizedByAPIKey reports whether the request presented a valid admin API key.
func AuthorizedByAPIKey(ctx context.Context) bool {
	ok, _ := ctx.Value(ctxAPIKeyAuthorized).(bool)
	return ok
}

// APIKey marks requests carrying a valid APIKeyHeader. A request presenting an unknown key is
// rejected outright; requests without the header pass through untouched.
func APIKey(keys []string) func(http.Handler) http.Handler {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if presented == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !matchesAny(accepted, []byte(presented)) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxAPIKeyAuthorized, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func matchesAny(accepted [][]byte, presented []byte) bool {
	found := false
	for _, key := range accepted {
		if subtle.ConstantTimeCompare(key, presented) == 1 {
			found = true
		}
	}
	return found
}

// AdminAllowList decides whether an authenticated identity may administer slug mappings.
// With no emails configured, the isAdmin claim decides.
type AdminAllowList struct {
	emails map[string]struct{}
}

// NewAdminAllowList builds an allow-list from email addresses (case-insensitive).
func NewAdminAllowList(emails []string) AdminAllowList {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = struct{}{}
		}
	}
	return AdminAllowList{emails: set}
}

// Allows reports whether creds belong to an administrator.
func (a AdminAllowList) Allows(creds *UserCredentials) bool {
	if creds == nil {
		return false
	}
	if len(a.emails) == 0 {
		return creds.IsAdmin
	}
	if !creds.EmailVerified {
		return false
	}
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(creds.Email))]
	return ok
}

// RequireAdmin gates admin endpoints: the request must carry a valid admin API key (see APIKey)
// or an authenticated identity accepted by the allow-list.
func RequireAdmin(allow AdminAllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if AuthorizedByAPIKey(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			creds, ok := UserFromContext(r.Context())
			if !ok || creds == nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !allow.Allows(creds) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
