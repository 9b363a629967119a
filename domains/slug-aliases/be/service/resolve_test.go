package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFinal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mappings map[string]string
		start    string
		want     string
	}{
		{name: "unmapped slug is its own target", mappings: map[string]string{"a": "b"}, start: "z", want: "z"},
		{name: "single hop", mappings: map[string]string{"a": "b"}, start: "a", want: "b"},
		{name: "multi hop", mappings: map[string]string{"a": "b", "b": "c", "c": "d"}, start: "a", want: "d"},
		{name: "two node loop stops at revisit", mappings: map[string]string{"a": "b", "b": "a"}, start: "a", want: "a"},
		{name: "tail into loop stops at loop entry", mappings: map[string]string{"x": "a", "a": "b", "b": "a"}, start: "x", want: "a"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, resolveFinal(tt.mappings, tt.start, newVisitedSet()))
		})
	}
}

func TestResolveFinalStopsAtStepCeiling(t *testing.T) {
	t.Parallel()

	mappings := make(map[string]string)
	for i := 0; i < 150; i++ {
		mappings[fmt.Sprintf("s%d", i)] = fmt.Sprintf("s%d", i+1)
	}

	require.Equal(t, fmt.Sprintf("s%d", maxWalkSteps), resolveFinal(mappings, "s0", newVisitedSet()))
}

func TestResolveCanonicalSlug(t *testing.T) {
	t.Parallel()

	store := newInMemoryStore(edge("Jane Doe", "jane-doe-2"), edge("jane-doe-2", "jane-smith"))
	svc, _ := newTestService(t, store, nil, DefaultConfig())
	ctx := context.Background()

	require.Equal(t, "jane-smith", svc.ResolveCanonicalSlug(ctx, "  JANE_DOE "))
	require.Equal(t, "jane-smith", svc.ResolveCanonicalSlug(ctx, "jane-doe-2"))
	require.Equal(t, "jane-smith", svc.ResolveCanonicalSlug(ctx, "jane-smith"))
	require.Equal(t, "someone-else", svc.ResolveCanonicalSlug(ctx, "Someone Else"))
	require.Equal(t, "", svc.ResolveCanonicalSlug(ctx, "  "))
}

func TestResolveCanonicalSlugProperties(t *testing.T) {
	t.Parallel()

	store := newInMemoryStore(
		edge("a", "b"),
		edge("b", "c"),
		edge("x", "y"),
		edge("y", "x"), // inconsistent historical loop
		edge("t", "x"),
		edge("m", "n"),
		edge("m", "o"),
	)
	svc, _ := newTestService(t, store, nil, DefaultConfig())
	ctx := context.Background()
	idx := svc.ensureIndex(ctx)
	require.NotNil(t, idx)

	for _, slug := range idx.Slugs() {
		resolved := svc.ResolveCanonicalSlug(ctx, slug)
		require.Equal(t, resolved, svc.ResolveCanonicalSlug(ctx, resolved), "idempotent for %q", slug)

		if _, mapped := idx.Target(slug); !mapped {
			require.Equal(t, slug, resolved, "canonical %q is a fixed point", slug)
		}
	}
}

func TestResolveCanonicalSlugFailsOpen(t *testing.T) {
	t.Parallel()

	store := newInMemoryStore(edge("a", "b"))
	store.setListErr(errBackendDown)
	svc, _ := newTestService(t, store, nil, DefaultConfig())

	require.Equal(t, "a", svc.ResolveCanonicalSlug(context.Background(), "A"))
}

func TestGetReverseSlugSource(t *testing.T) {
	t.Parallel()

	store := newInMemoryStore(
		edge("zed", "target"),
		edge("alpha", "target"),
		edge("mid", "target"),
		edge("alpha", "elsewhere"),
	)
	svc, _ := newTestService(t, store, nil, DefaultConfig())
	ctx := context.Background()

	source, ok := svc.GetReverseSlugSource(ctx, "Target")
	require.True(t, ok)
	require.Equal(t, "mid", source, "alpha no longer targets it; lowest remaining source wins")

	_, ok = svc.GetReverseSlugSource(ctx, "nobody-points-here")
	require.False(t, ok)

	_, ok = svc.GetReverseSlugSource(ctx, "")
	require.False(t, ok)
}
