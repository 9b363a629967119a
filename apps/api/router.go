package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	slugaliaseshandler "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/handler"
	platformauth "github.com/zenGate-Global/palmyra-profiles/platform/go/auth"
	platformlogging "github.com/zenGate-Global/palmyra-profiles/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/palmyra-profiles/platform/go/middleware"
)

type routerDeps struct {
	logger         *zap.Logger
	slugHandler    *slugaliaseshandler.Handler
	authMiddleware func(http.Handler) http.Handler
	adminAPIKeys   []string
	adminEmails    []string
	requestTimeout time.Duration
	ready          func(context.Context) error
	specValidator  func(http.Handler) http.Handler
}

// newRouter assembles the HTTP surface. Middleware order matters: credentials (JWT, API key) are
// parsed before RequestTrace builds the audit, and the admin gate runs before contract validation
// so unauthorized callers never learn request shape errors.
func newRouter(d routerDeps) http.Handler {
	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(d.requestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(d.logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.ready != nil {
			if err := d.ready(r.Context()); err != nil {
				platformlogging.FromRequest(r, d.logger).Warn("readiness check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", promhttp.Handler())

	// ---- Swagger UI + OpenAPI JSON (public) ----
	registerDocsRoutes(rootRouter, d.logger)

	apiRouter := chi.NewRouter()
	apiRouter.Use(d.authMiddleware)
	apiRouter.Use(platformauth.APIKey(d.adminAPIKeys))
	apiRouter.Use(platformmiddleware.RequestTrace)

	apiRouter.Group(func(r chi.Router) {
		r.Use(d.specValidator)
		d.slugHandler.PublicRoutes(r)
	})

	apiRouter.Group(func(r chi.Router) {
		r.Use(platformauth.RequireAdmin(platformauth.NewAdminAllowList(d.adminEmails)))
		r.Use(d.specValidator)
		d.slugHandler.AdminRoutes(r)
	})

	rootRouter.Mount("/api/v1", apiRouter)
	return rootRouter
}
