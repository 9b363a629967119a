package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-profiles/contracts"
	slugaliaseshandler "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/handler"
	slugaliasesrepo "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/repo"
	slugaliasesservice "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	platformlogging "github.com/zenGate-Global/palmyra-profiles/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/palmyra-profiles/platform/go/middleware"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/persistence"
)

type config struct {
	Port                 string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	EdgeStore            string        `env:"EDGE_STORE" envDefault:"postgres"` // postgres | memory
	DatabaseURL          string        `env:"DATABASE_URL"`                     // required when EDGE_STORE=postgres
	DatabaseSchema       string        `env:"DATABASE_SCHEMA" envDefault:"public"`
	DatabaseBootstrap    bool          `env:"DATABASE_BOOTSTRAP" envDefault:"false"`
	AuthProvider         string        `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | dev
	FirebaseProjectID    string        `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentials  string        `env:"FIREBASE_CONFIG"`
	AdminAPIKeys         []string      `env:"ADMIN_API_KEYS" envSeparator:","`
	AdminEmails          []string      `env:"ADMIN_EMAILS" envSeparator:","`
	SlugCacheTTLMs       int           `env:"SLUG_CACHE_TTL_MS" envDefault:"60000"`
	SlugAutoCanonicalize bool          `env:"SLUG_AUTO_CANONICALIZE" envDefault:"true"`
	CanonicalizeTimeout  time.Duration `env:"CANONICALIZE_TIMEOUT" envDefault:"5s"`
}

func (c config) serviceConfig() slugaliasesservice.Config {
	return slugaliasesservice.Config{
		CacheTTL:            time.Duration(c.SlugCacheTTLMs) * time.Millisecond,
		AutoCanonicalize:    c.SlugAutoCanonicalize,
		CanonicalizeTimeout: c.CanonicalizeTimeout,
	}
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var (
		store    slugaliasesservice.EdgeStore
		ensurer  slugaliasesservice.CanonicalEnsurer
		readyzFn = func(context.Context) error { return nil }
	)

	switch cfg.EdgeStore {
	case "postgres":
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL required when EDGE_STORE=postgres")
		}
		pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
			ConnString:      cfg.DatabaseURL,
			ApplicationName: "palmyra-profiles-api",
		})
		if err != nil {
			logger.Fatal("init postgres pool", zap.Error(err))
		}
		defer persistence.ClosePool(pool)

		if cfg.DatabaseBootstrap {
			if err := persistence.BootstrapSchema(ctx, pool, cfg.DatabaseSchema); err != nil {
				logger.Fatal("bootstrap schema", zap.String("schema", cfg.DatabaseSchema), zap.Error(err))
			}
		}

		aliasStore, err := persistence.NewSlugAliasStore(ctx, pool, cfg.DatabaseSchema)
		if err != nil {
			logger.Fatal("init slug alias store", zap.Error(err))
		}
		canonicalStore, err := persistence.NewCanonicalRecordStore(ctx, pool, cfg.DatabaseSchema)
		if err != nil {
			logger.Fatal("init canonical record store", zap.Error(err))
		}

		store = slugaliasesrepo.NewPostgresRepository(aliasStore)
		ensurer = slugaliasesrepo.NewCanonicalRecorder(canonicalStore)
		readyzFn = func(ctx context.Context) error { return persistence.Ping(ctx, pool, 2*time.Second) }
	case "memory":
		logger.Warn("using in-memory slug alias store; mappings are lost on restart")
		store = slugaliasesrepo.NewMemoryRepository()
		ensurer = slugaliasesrepo.NewMemoryCanonicalRecorder()
	default:
		logger.Fatal("invalid EDGE_STORE (use postgres or memory)", zap.String("edge_store", cfg.EdgeStore))
	}

	slugService := slugaliasesservice.New(store, ensurer, cfg.serviceConfig(), logger)
	slugHTTPHandler := slugaliaseshandler.New(slugService, logger)

	if len(cfg.AdminAPIKeys) == 0 && len(cfg.AdminEmails) == 0 {
		logger.Warn("no ADMIN_API_KEYS or ADMIN_EMAILS configured; only isAdmin claims can write slug aliases")
	}

	rootRouter := newRouter(routerDeps{
		logger:         logger,
		slugHandler:    slugHTTPHandler,
		authMiddleware: buildAuthMiddleware(ctx, cfg, logger),
		adminAPIKeys:   cfg.AdminAPIKeys,
		adminEmails:    cfg.AdminEmails,
		requestTimeout: cfg.RequestTimeout,
		ready:          readyzFn,
		specValidator:  mustNewSpecValidator(ctx, logger, contracts.SlugAliasesName),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.String("edge_store", cfg.EdgeStore),
			zap.Int("slug_cache_ttl_ms", cfg.SlugCacheTTLMs),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// Let fire-and-forget canonical record writes land before the pool closes.
	slugaliasesservice.WaitForBackground(slugService)
}

// mustNewSpecValidator loads the embedded contract and builds oapi-codegen validator middleware.
func mustNewSpecValidator(ctx context.Context, logger *zap.Logger, name string) func(http.Handler) http.Handler {
	spec := mustLoadSpec(ctx, logger, name)

	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: platformmiddleware.ValidateAuthenticationViaSwagger,
		},
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			slugaliaseshandler.WriteProblem(w, statusCode, message)
		},
		SilenceServersWarning: true,
	})
}

// mustLoadSpec loads and returns the OpenAPI document for validation and docs serving.
func mustLoadSpec(ctx context.Context, logger *zap.Logger, name string) *openapi3.T {
	spec, err := contracts.Load(ctx, name)
	if err != nil {
		logger.Fatal("load openapi contract", zap.String("name", name), zap.Error(err))
	}
	logSecuritySchemes(logger, name, spec)
	return spec
}

func logSecuritySchemes(logger *zap.Logger, name string, spec *openapi3.T) {
	if spec.Components.SecuritySchemes == nil {
		spec.Components.SecuritySchemes = openapi3.SecuritySchemes{}
	}

	if _, ok := spec.Components.SecuritySchemes["bearerAuth"]; !ok {
		spec.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:   "http",
				Scheme: "bearer",
			},
		}
		logger.Warn("injecting default bearerAuth security scheme", zap.String("name", name))
	}

	names := make([]string, 0, len(spec.Components.SecuritySchemes))
	for schemeName := range spec.Components.SecuritySchemes {
		names = append(names, schemeName)
	}
	logger.Info("loaded security schemes", zap.String("name", name), zap.Strings("names", names))
}
