package service

import "context"

// visitedSet tracks slugs already stepped through during a single chain walk.
type visitedSet map[string]struct{}

func newVisitedSet() visitedSet {
	return make(visitedSet)
}

func (v visitedSet) has(slug string) bool {
	_, ok := v[slug]
	return ok
}

func (v visitedSet) add(slug string) {
	v[slug] = struct{}{}
}

// resolveFinal follows mappings from start until it reaches a slug with no outgoing mapping.
// If the walk comes back to a slug it already stepped through, it stops there instead of
// following the loop again. The walk never takes more than maxWalkSteps steps.
func resolveFinal(mappings map[string]string, start string, visited visitedSet) string {
	cur := start
	for step := 0; step < maxWalkSteps; step++ {
		next, ok := mappings[cur]
		if !ok {
			return cur
		}
		if visited.has(cur) {
			return cur
		}
		visited.add(cur)
		cur = next
	}
	return cur
}

// ResolveCanonicalSlug maps incoming to its current canonical slug. When no index is available the
// normalized input is returned unchanged.
func (s *service) ResolveCanonicalSlug(ctx context.Context, incoming string) string {
	slug := normalizeSlug(incoming)
	if slug == "" {
		return ""
	}

	idx := s.ensureIndex(ctx)
	if idx == nil {
		return slug
	}
	return resolveFinal(idx.byFrom, slug, newVisitedSet())
}

// GetReverseSlugSource returns one slug that redirects directly to target. When several do, the
// lowest by string comparison is returned.
func (s *service) GetReverseSlugSource(ctx context.Context, target string) (string, bool) {
	slug := normalizeSlug(target)
	if slug == "" {
		return "", false
	}

	idx := s.ensureIndex(ctx)
	if idx == nil {
		return "", false
	}

	sources := idx.Sources(slug)
	if len(sources) == 0 {
		return "", false
	}
	return sources[0], true
}
