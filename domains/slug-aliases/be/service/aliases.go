package service

import (
	"context"
	"sort"
)

// AliasSet is the equivalence class of a canonical slug. Members is sorted and always contains
// Canonical when Canonical is non-empty.
type AliasSet struct {
	Canonical string
	Members   []string
}

// Contains reports whether slug (already normalized) belongs to the set.
func (a AliasSet) Contains(slug string) bool {
	i := sort.SearchStrings(a.Members, slug)
	return i < len(a.Members) && a.Members[i] == slug
}

// GetSlugAliases resolves slugOrAlias to its canonical slug and returns every slug that reaches it.
func (s *service) GetSlugAliases(ctx context.Context, slugOrAlias string) AliasSet {
	slug := normalizeSlug(slugOrAlias)
	if slug == "" {
		return AliasSet{}
	}

	idx := s.ensureIndex(ctx)
	if idx == nil {
		return AliasSet{Canonical: slug, Members: []string{slug}}
	}

	canonical := resolveFinal(idx.byFrom, slug, newVisitedSet())
	members := collectAliases(idx.byTo, canonical)
	return AliasSet{Canonical: canonical, Members: sortedKeys(members)}
}

// collectAliases walks the reversed mapping graph outward from canonical. The first level is the
// direct sources of canonical; each further level absorbs slugs redirecting to an already absorbed
// slug, which covers chains recorded against intermediate aliases. Expansion stops when a level adds
// nothing or after maxAbsorptionPasses further levels.
func collectAliases(byTo map[string]map[string]struct{}, canonical string) map[string]struct{} {
	members := map[string]struct{}{canonical: {}}

	frontier := make([]string, 0, len(byTo[canonical]))
	for from := range byTo[canonical] {
		if _, seen := members[from]; !seen {
			members[from] = struct{}{}
			frontier = append(frontier, from)
		}
	}

	for pass := 0; pass < maxAbsorptionPasses && len(frontier) > 0; pass++ {
		var next []string
		for _, slug := range frontier {
			for from := range byTo[slug] {
				if _, seen := members[from]; seen {
					continue
				}
				members[from] = struct{}{}
				next = append(next, from)
			}
		}
		frontier = next
	}

	return members
}
