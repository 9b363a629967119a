package repo

import (
	"context"
	"time"

	"github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/persistence"
)

// PostgresRepository implements the edge log using the shared persistence layer's append-only table.
type PostgresRepository struct {
	store *persistence.SlugAliasStore
}

// NewPostgresRepository constructs a repository backed by SlugAliasStore.
func NewPostgresRepository(store *persistence.SlugAliasStore) *PostgresRepository {
	if store == nil {
		panic("slug alias store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) ListEdges(ctx context.Context) ([]service.Edge, error) {
	records, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	edges := make([]service.Edge, 0, len(records))
	for _, rec := range records {
		edges = append(edges, toServiceEdge(rec))
	}
	return edges, nil
}

func (r *PostgresRepository) AppendEdge(ctx context.Context, edge service.Edge) (service.Edge, error) {
	rec, err := r.store.Append(ctx, persistence.AppendSlugAliasParams{
		FromSlug:  edge.From,
		ToSlug:    edge.To,
		CreatedAt: edge.CreatedAt,
		CreatedBy: edge.CreatedBy,
	})
	if err != nil {
		return service.Edge{}, err
	}
	return toServiceEdge(rec), nil
}

func toServiceEdge(rec persistence.SlugAliasRecord) service.Edge {
	return service.Edge{
		From:      rec.FromSlug,
		To:        rec.ToSlug,
		CreatedAt: rec.CreatedAt.UTC(),
		CreatedBy: rec.CreatedBy,
	}
}

// CanonicalRecorder implements service.CanonicalEnsurer over the canonical record table.
type CanonicalRecorder struct {
	store *persistence.CanonicalRecordStore
	now   func() time.Time
}

// NewCanonicalRecorder constructs a CanonicalRecorder backed by CanonicalRecordStore.
func NewCanonicalRecorder(store *persistence.CanonicalRecordStore) *CanonicalRecorder {
	if store == nil {
		panic("canonical record store is required")
	}
	return &CanonicalRecorder{store: store, now: time.Now}
}

func (c *CanonicalRecorder) EnsureCanonical(ctx context.Context, canonical, alias string) error {
	_, err := c.store.Ensure(ctx, canonical, alias, c.now().UTC())
	return err
}

// Ensure interface compliance.
var (
	_ service.EdgeStore        = (*PostgresRepository)(nil)
	_ service.CanonicalEnsurer = (*CanonicalRecorder)(nil)
)
