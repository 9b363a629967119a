package repo

import (
	"context"
	"sync"
	"time"

	"github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
)

// MemoryRepository is an in-memory edge log suitable for tests and local development.
type MemoryRepository struct {
	mu    sync.RWMutex
	edges []service.Edge
	now   func() time.Time
}

// NewMemoryRepository constructs a MemoryRepository seeded with edges, kept in the given order.
func NewMemoryRepository(seed ...service.Edge) *MemoryRepository {
	return &MemoryRepository{edges: append([]service.Edge(nil), seed...), now: time.Now}
}

func (r *MemoryRepository) ListEdges(ctx context.Context) ([]service.Edge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]service.Edge, len(r.edges))
	copy(out, r.edges)
	return out, nil
}

func (r *MemoryRepository) AppendEdge(ctx context.Context, edge service.Edge) (service.Edge, error) {
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = r.now().UTC()
	}
	if edge.CreatedBy == "" {
		edge.CreatedBy = "system"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.edges = append(r.edges, edge)
	return edge, nil
}

// CanonicalHit is the in-memory counterpart of a profile_canonical_records row.
type CanonicalHit struct {
	LastAlias string
	Hits      int64
}

// MemoryCanonicalRecorder tracks ensure-canonical calls in memory.
type MemoryCanonicalRecorder struct {
	mu   sync.Mutex
	hits map[string]CanonicalHit
}

func NewMemoryCanonicalRecorder() *MemoryCanonicalRecorder {
	return &MemoryCanonicalRecorder{hits: make(map[string]CanonicalHit)}
}

func (m *MemoryCanonicalRecorder) EnsureCanonical(ctx context.Context, canonical, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hit := m.hits[canonical]
	hit.Hits++
	if alias != "" {
		hit.LastAlias = alias
	}
	m.hits[canonical] = hit
	return nil
}

// Get returns the recorded hits for canonical.
func (m *MemoryCanonicalRecorder) Get(canonical string) (CanonicalHit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hit, ok := m.hits[canonical]
	return hit, ok
}

// Ensure interface compliance.
var (
	_ service.EdgeStore        = (*MemoryRepository)(nil)
	_ service.CanonicalEnsurer = (*MemoryCanonicalRecorder)(nil)
)
