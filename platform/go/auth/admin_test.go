package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminAllowList(t *testing.T) {
	withEmails := NewAdminAllowList([]string{" Ops@Example.com ", ""})
	claimOnly := NewAdminAllowList(nil)

	verified := &UserCredentials{Id: "u1", Email: "ops@example.com", EmailVerified: true}
	unverified := &UserCredentials{Id: "u2", Email: "ops@example.com"}
	stranger := &UserCredentials{Id: "u3", Email: "else@example.com", EmailVerified: true, IsAdmin: true}
	claimAdmin := &UserCredentials{Id: "u4", IsAdmin: true}

	require.True(t, withEmails.Allows(verified))
	require.False(t, withEmails.Allows(unverified))
	require.False(t, withEmails.Allows(stranger), "isAdmin claim is ignored once emails are configured")
	require.False(t, withEmails.Allows(nil))

	require.True(t, claimOnly.Allows(claimAdmin))
	require.False(t, claimOnly.Allows(verified))
}

func TestRequireAdmin(t *testing.T) {
	allow := NewAdminAllowList([]string{"ops@example.com"})

	testCases := []struct {
		name       string
		apiKey     string
		creds      *UserCredentials
		wantStatus int
	}{
		{name: "no identity", wantStatus: http.StatusUnauthorized},
		{name: "unknown api key", apiKey: "nope", wantStatus: http.StatusUnauthorized},
		{name: "valid api key", apiKey: "secret-1", wantStatus: http.StatusOK},
		{
			name:       "allowed email",
			creds:      &UserCredentials{Id: "u1", Email: "ops@example.com", EmailVerified: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "authenticated but not admin",
			creds:      &UserCredentials{Id: "u2", Email: "dev@example.com", EmailVerified: true},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			h := APIKey([]string{"secret-1", " secret-2 "})(RequireAdmin(allow)(ok))

			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tc.apiKey != "" {
				req.Header.Set(APIKeyHeader, tc.apiKey)
			}
			if tc.creds != nil {
				req = req.WithContext(WithUser(req.Context(), tc.creds))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestAPIKeyMarksContext(t *testing.T) {
	var marked bool
	h := APIKey([]string{"k"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		marked = AuthorizedByAPIKey(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "k")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, marked)

	marked = true
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, marked)
}

func TestAPIKeyWithNoConfiguredKeysRejectsPresentedKey(t *testing.T) {
	h := APIKey(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
