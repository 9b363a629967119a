package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestNewLoggerEmitsCloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Component: "slug-api", Level: "WARN", Output: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("slug index rebuild failed", zap.String("slug", "old-name"))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "WARNING", entry["severity"])
	require.Equal(t, "slug index rebuild failed", entry["message"])
	require.Equal(t, "slug-api", entry["component"])
	require.Equal(t, "old-name", entry["slug"])
	require.Contains(t, entry, "timestamp")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "chatty"})
	require.Error(t, err)
}

func TestRequestLoggerStoresLoggerOnContext(t *testing.T) {
	base := zaptest.NewLogger(t)

	var fromCtx *zap.Logger
	h := chimw.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromRequest(r, nil)
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slugs/a/resolve", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, fromCtx)
	require.NotSame(t, base, fromCtx)
}

func TestFromRequestFallback(t *testing.T) {
	fallback := zap.NewNop()
	require.Same(t, fallback, FromRequest(httptest.NewRequest(http.MethodGet, "/", nil), fallback))
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewLogger(Config{Component: "slug-api", Level: "info", Output: &buf})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(RequestLogger(base))
	r.Get("/api/v1/slugs/{slug}/resolve", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slugs/old-name/resolve", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, base.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	require.Equal(t, "request completed", entry["message"])
	require.Equal(t, "/api/v1/slugs/{slug}/resolve", entry["route"])
	require.Equal(t, "/api/v1/slugs/old-name/resolve", entry["path"])
	require.EqualValues(t, http.StatusOK, entry["status"])
}
