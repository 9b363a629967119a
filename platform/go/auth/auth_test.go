package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCredentialExtractor(t *testing.T) {
	creds, err := DefaultCredentialExtractor(map[string]interface{}{
		"uid":            "user-123",
		"email":          "user@example.com",
		"isAdmin":        true,
		"email_verified": true,
		"name":           "Dev Admin",
	})
	require.NoError(t, err)
	require.Equal(t, "user-123", creds.Id)
	require.Equal(t, "user@example.com", creds.Email)
	require.True(t, creds.EmailVerified)
	require.True(t, creds.IsAdmin)
	require.NotNil(t, creds.Name)
	require.Equal(t, "Dev Admin", *creds.Name)
	require.Nil(t, creds.PictureURL)
}

func TestDefaultCredentialExtractorFallbacks(t *testing.T) {
	creds, err := DefaultCredentialExtractor(map[string]interface{}{"sub": "subject-1"})
	require.NoError(t, err)
	require.Equal(t, "subject-1", creds.Id)
	require.False(t, creds.IsAdmin)

	creds, err = DefaultCredentialExtractor(map[string]interface{}{})
	require.NoError(t, err)
	require.Equal(t, "unknown-user", creds.Id)

	_, err = DefaultCredentialExtractor(nil)
	require.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	token := unsignedToken(t, map[string]interface{}{"uid": "user-1", "email": "a@example.com"})

	testCases := []struct {
		name       string
		header     string
		verify     VerifyFunc
		wantStatus int
		wantUser   string
	}{
		{name: "no header passes through", wantStatus: http.StatusOK},
		{name: "non bearer header ignored", header: "Basic abc", wantStatus: http.StatusOK},
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK, wantUser: "user-1"},
		{
			name:       "verifier rejects",
			header:     "Bearer " + token,
			verify:     func(context.Context, string) (map[string]interface{}, error) { return nil, errors.New("expired") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verify := tc.verify
			if verify == nil {
				verify = UnsignedTokenVerifier()
			}

			var gotUser string
			h := JWT(verify, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if creds, ok := UserFromContext(r.Context()); ok {
					gotUser = creds.Id
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantUser, gotUser)
			if tc.wantStatus == http.StatusUnauthorized {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
			}
		})
	}
}

func TestParseUnsignedJWTClaimsRejectsGarbage(t *testing.T) {
	_, err := parseUnsignedJWTClaims("not-a-token")
	require.Error(t, err)

	_, err = parseUnsignedJWTClaims("a.%%%.c")
	require.Error(t, err)
}

func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(claims)
	require.NoError(t, err)
	return "e30." + base64.RawURLEncoding.EncodeToString(raw) + ".sig"
}
