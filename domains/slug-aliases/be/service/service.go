package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/zenGate-Global/palmyra-profiles/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/requesttrace"
)

const (
	// DefaultCacheTTL is how long a Forward Index snapshot is served before it is rebuilt.
	DefaultCacheTTL = 60 * time.Second
	// DefaultCanonicalizeTimeout bounds a single background ensure-canonical call.
	DefaultCanonicalizeTimeout = 5 * time.Second

	// maxWalkSteps caps every redirect chain walk.
	maxWalkSteps = 100
	// maxAbsorptionPasses caps the reverse expansion performed when building alias sets.
	maxAbsorptionPasses = 100

	indexBuildTimeout = 10 * time.Second
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError captures input validation problems surfaced by the service.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for field, messages := range v.Fields {
		parts = append(parts, field+": "+strings.Join(messages, ", "))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Domain-level error sentinel values.
var (
	ErrMappingCycle     = errors.New("slug mapping would create a cycle")
	ErrStoreUnavailable = errors.New("slug alias store unavailable")
)

// CycleError reports the mapping that was rejected and where its target ultimately resolves.
type CycleError struct {
	From        string
	To          string
	FinalTarget string
}

func (c *CycleError) Error() string {
	return fmt.Sprintf("mapping %q -> %q rejected: %q already resolves back to %q", c.From, c.To, c.To, c.FinalTarget)
}

func (c *CycleError) Unwrap() error {
	return ErrMappingCycle
}

// Edge is one entry of the redirect log: requests for From should resolve to To.
type Edge struct {
	From      string
	To        string
	CreatedAt time.Time
	CreatedBy string
}

// EdgeStore is the alias store adapter. ListEdges must return edges in append order.
type EdgeStore interface {
	ListEdges(ctx context.Context) ([]Edge, error)
	AppendEdge(ctx context.Context, edge Edge) (Edge, error)
}

// CanonicalEnsurer records that a canonical slug was reached through a redirect.
type CanonicalEnsurer interface {
	EnsureCanonical(ctx context.Context, canonical, alias string) error
}

// Config tunes the engine.
type Config struct {
	// CacheTTL bounds snapshot staleness; zero means DefaultCacheTTL.
	CacheTTL time.Duration
	// AutoCanonicalize enables the background ensure-canonical call on forwarded lookups.
	AutoCanonicalize bool
	// CanonicalizeTimeout bounds each background call; zero means DefaultCanonicalizeTimeout.
	CanonicalizeTimeout time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:            DefaultCacheTTL,
		AutoCanonicalize:    true,
		CanonicalizeTimeout: DefaultCanonicalizeTimeout,
	}
}

// Service exposes slug canonicalization.
type Service interface {
	ResolveCanonicalSlug(ctx context.Context, incoming string) string
	GetSlugAliases(ctx context.Context, slugOrAlias string) AliasSet
	GetReverseSlugSource(ctx context.Context, target string) (string, bool)
	Lookup(ctx context.Context, incoming string) LookupResult
	ProposeMapping(ctx context.Context, audit requesttrace.AuditInfo, from, to string) (MappingResult, error)
	ListEdges(ctx context.Context) ([]Edge, error)
	Invalidate()
}

type service struct {
	store    EdgeStore
	ensurer  CanonicalEnsurer
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
	snapshot atomic.Pointer[Index]
	flight   singleflight.Group
	inflight sync.WaitGroup

	// generation is bumped by Invalidate; rebuilds started under an older generation are not published.
	generation atomic.Uint64
	publishMu  sync.Mutex
}

// New builds a Service reading and appending through store. ensurer may be nil, which disables
// auto-canonicalization regardless of cfg.
func New(store EdgeStore, ensurer CanonicalEnsurer, cfg Config, logger *zap.Logger) Service {
	if store == nil {
		panic("slug alias store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.CanonicalizeTimeout <= 0 {
		cfg.CanonicalizeTimeout = DefaultCanonicalizeTimeout
	}

	return &service{
		store:   store,
		ensurer: ensurer,
		cfg:     cfg,
		logger:  logger.With(zap.String("domain", "slug-aliases")),
		now:     time.Now,
	}
}

// ListEdges returns the raw log in read order, straight from the store.
func (s *service) ListEdges(ctx context.Context) ([]Edge, error) {
	edges, err := s.store.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return edges, nil
}

// Invalidate drops the current snapshot so the next read rebuilds it.
func (s *service) Invalidate() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.generation.Add(1)
	s.snapshot.Store(nil)
}

func normalizeSlug(value string) string {
	return persistence.NormalizeSlug(value)
}
