package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// inMemoryStore is a minimal in-memory EdgeStore for tests.
type inMemoryStore struct {
	mu        sync.Mutex
	edges     []Edge
	listErr   error
	appendErr error
	lists     atomic.Int32
}

func newInMemoryStore(edges ...Edge) *inMemoryStore {
	return &inMemoryStore{edges: append([]Edge(nil), edges...)}
}

func (s *inMemoryStore) ListEdges(ctx context.Context) ([]Edge, error) {
	s.lists.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]Edge(nil), s.edges...), nil
}

func (s *inMemoryStore) AppendEdge(ctx context.Context, edge Edge) (Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return Edge{}, s.appendErr
	}
	s.edges = append(s.edges, edge)
	return edge, nil
}

func (s *inMemoryStore) setListErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *inMemoryStore) snapshot() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Edge(nil), s.edges...)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingEnsurer captures ensure-canonical calls.
type recordingEnsurer struct {
	mu    sync.Mutex
	calls [][2]string
	err   error
}

func (e *recordingEnsurer) EnsureCanonical(ctx context.Context, canonical, alias string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, [2]string{canonical, alias})
	return e.err
}

func (e *recordingEnsurer) Calls() [][2]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][2]string(nil), e.calls...)
}

var errBackendDown = errors.New("backend down")

func edge(from, to string) Edge {
	return Edge{From: from, To: to, CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func newTestService(t *testing.T, store EdgeStore, ensurer CanonicalEnsurer, cfg Config) (*service, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	svc := New(store, ensurer, cfg, zaptest.NewLogger(t)).(*service)
	svc.now = clock.Now
	return svc, clock
}
