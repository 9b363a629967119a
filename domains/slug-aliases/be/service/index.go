package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Index is an immutable snapshot of the effective redirect mappings. It is never mutated after
// BuildIndex returns; a refresh builds a new Index and swaps the pointer.
type Index struct {
	byFrom  map[string]string
	byTo    map[string]map[string]struct{}
	all     map[string]struct{}
	builtAt time.Time
}

// BuildIndex folds the edge log into an Index. Edges are normalized; blank and self edges are dropped,
// and for a repeated from the last edge in read order wins.
func BuildIndex(edges []Edge, builtAt time.Time) *Index {
	byFrom, _, all := foldEdges(edges)

	byTo := make(map[string]map[string]struct{}, len(byFrom))
	for from, to := range byFrom {
		sources, ok := byTo[to]
		if !ok {
			sources = make(map[string]struct{})
			byTo[to] = sources
		}
		sources[from] = struct{}{}
	}

	return &Index{byFrom: byFrom, byTo: byTo, all: all, builtAt: builtAt}
}

// foldEdges replays the log in order. It returns the effective from->to map, the effective edge per
// from (normalized), and every slug that appeared on a kept edge.
func foldEdges(edges []Edge) (map[string]string, map[string]Edge, map[string]struct{}) {
	byFrom := make(map[string]string, len(edges))
	effective := make(map[string]Edge, len(edges))
	all := make(map[string]struct{}, len(edges)*2)

	for _, raw := range edges {
		from := normalizeSlug(raw.From)
		to := normalizeSlug(raw.To)
		if from == "" || to == "" || from == to {
			continue
		}

		byFrom[from] = to
		edge := raw
		edge.From, edge.To = from, to
		effective[from] = edge
		all[from] = struct{}{}
		all[to] = struct{}{}
	}

	return byFrom, effective, all
}

// Target returns the effective redirect for from.
func (i *Index) Target(from string) (string, bool) {
	to, ok := i.byFrom[from]
	return to, ok
}

// Sources returns every slug whose effective edge targets to, sorted.
func (i *Index) Sources(to string) []string {
	return sortedKeys(i.byTo[to])
}

// Slugs returns every slug known to the index, sorted.
func (i *Index) Slugs() []string {
	return sortedKeys(i.all)
}

// Len is the number of effective mappings.
func (i *Index) Len() int {
	return len(i.byFrom)
}

// BuiltAt is when the snapshot was built.
func (i *Index) BuiltAt() time.Time {
	return i.builtAt
}

func (i *Index) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(i.builtAt) >= ttl
}

// ensureIndex returns the current snapshot, rebuilding it when missing or older than the TTL.
// A failed rebuild clears the snapshot and returns nil so reads degrade to pass-through.
func (s *service) ensureIndex(ctx context.Context) *Index {
	if idx := s.snapshot.Load(); idx != nil && !idx.expired(s.now(), s.cfg.CacheTTL) {
		return idx
	}

	gen := s.generation.Load()
	v, _, _ := s.flight.Do(fmt.Sprintf("forward-index/%d", gen), func() (interface{}, error) {
		if idx := s.snapshot.Load(); idx != nil && !idx.expired(s.now(), s.cfg.CacheTTL) {
			return idx, nil
		}

		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexBuildTimeout)
		defer cancel()

		edges, err := s.store.ListEdges(buildCtx)
		if err != nil {
			s.publish(gen, nil)
			indexRebuilds.WithLabelValues("error").Inc()
			indexEdges.Set(0)
			s.logger.Warn("forward index rebuild failed; resolving as pass-through", zap.Error(err))
			return (*Index)(nil), nil
		}

		idx := BuildIndex(edges, s.now())
		if !s.publish(gen, idx) {
			s.logger.Debug("forward index invalidated during rebuild; snapshot discarded")
		}
		indexRebuilds.WithLabelValues("ok").Inc()
		indexEdges.Set(float64(idx.Len()))
		s.logger.Debug("forward index rebuilt",
			zap.Int("raw_edges", len(edges)),
			zap.Int("effective_edges", idx.Len()),
		)
		return idx, nil
	})

	idx, _ := v.(*Index)
	return idx
}

// publish stores idx as the shared snapshot unless Invalidate ran after gen was read. A rebuild
// that listed the log before an invalidating write must not hide that write for a full TTL.
func (s *service) publish(gen uint64, idx *Index) bool {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	s.snapshot.Store(idx)
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
