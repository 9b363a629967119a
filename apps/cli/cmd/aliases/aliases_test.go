package aliases

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	slugaliasesrepo "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/repo"
	slugaliasesservice "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/storage"
)

// useMemoryBackend points every command at a shared in-memory log for the duration of the test.
func useMemoryBackend(t *testing.T, seed ...slugaliasesservice.Edge) *slugaliasesrepo.MemoryRepository {
	t.Helper()

	store := slugaliasesrepo.NewMemoryRepository(seed...)
	previous := openBackend
	openBackend = func(ctx context.Context, opts *options, stderr io.Writer) (*backend, error) {
		svc := slugaliasesservice.New(store, nil, slugaliasesservice.Config{}, zaptest.NewLogger(t))
		return &backend{svc: svc, close: func() {}}, nil
	}
	t.Cleanup(func() { openBackend = previous })
	return store
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedEdge(from, to string) slugaliasesservice.Edge {
	return slugaliasesservice.Edge{From: from, To: to, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), CreatedBy: "system"}
}

func TestProposeCollapsesToFinalTarget(t *testing.T) {
	store := useMemoryBackend(t, seedEdge("b", "c"))

	out, err := run(t, "propose", "A", "b", "--actor", "ops@example.com")
	require.NoError(t, err)
	require.Equal(t, "recorded a -> c\n", out)

	edges, err := store.ListEdges(context.Background())
	require.NoError(t, err)
	require.Len(t, edges, 2)
	require.Equal(t, "ops@example.com", edges[1].CreatedBy)

	out, err = run(t, "propose", "a", "c")
	require.NoError(t, err)
	require.Equal(t, "unchanged a -> c\n", out)
}

func TestProposeRejectsCycle(t *testing.T) {
	useMemoryBackend(t, seedEdge("a", "b"))

	_, err := run(t, "propose", "b", "a")
	require.ErrorIs(t, err, slugaliasesservice.ErrMappingCycle)
}

func TestResolveAndMembers(t *testing.T) {
	useMemoryBackend(t, seedEdge("a", "b"), seedEdge("b", "c"), seedEdge("x", "c"))

	out, err := run(t, "resolve", "a", "zzz")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, []string{"a", "c", "redirect"}, strings.Fields(lines[0]))
	require.Equal(t, []string{"zzz", "zzz", "pass"}, strings.Fields(lines[1]))

	out, err = run(t, "members", "b")
	require.NoError(t, err)
	require.Equal(t, "canonical: c\nalias: a\nalias: b\nalias: x\n", out)
}

func TestListFormats(t *testing.T) {
	useMemoryBackend(t, seedEdge("a", "b"))

	out, err := run(t, "list")
	require.NoError(t, err)
	require.Contains(t, out, "FROM")
	require.Contains(t, out, "2026-01-01T00:00:00Z")

	out, err = run(t, "list", "-o", "ndjson")
	require.NoError(t, err)
	records, err := storage.ReadNDJSON(strings.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, []storage.SnapshotRecord{{FromSlug: "a", ToSlug: "b", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), CreatedBy: "system"}}, records)

	_, err = run(t, "list", "-o", "yaml")
	require.Error(t, err)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportAppliesMappingsInOrder(t *testing.T) {
	store := useMemoryBackend(t)

	path := writeFile(t, "aliases.json", `{"aliases":[
		{"fromSlug":"b","toSlug":"c"},
		{"fromSlug":"a","toSlug":"b"},
		{"fromSlug":"a","toSlug":"c"}
	]}`)

	out, err := run(t, "import", path)
	require.NoError(t, err)
	require.Equal(t, "recorded 2, unchanged 1, rejected 0\n", out)

	edges, err := store.ListEdges(context.Background())
	require.NoError(t, err)
	require.Len(t, edges, 2)
	require.Equal(t, "c", edges[1].To)
}

func TestImportStopsOnCycleUnlessContinuing(t *testing.T) {
	content := `{"aliases":[
		{"fromSlug":"a","toSlug":"b"},
		{"fromSlug":"b","toSlug":"a"},
		{"fromSlug":"x","toSlug":"y"}
	]}`

	useMemoryBackend(t)
	out, err := run(t, "import", writeFile(t, "aliases.json", content))
	require.ErrorIs(t, err, slugaliasesservice.ErrMappingCycle)
	require.Equal(t, "recorded 1, unchanged 0, rejected 1\n", out)

	useMemoryBackend(t)
	out, err = run(t, "import", "--continue-on-error", writeFile(t, "aliases.json", content))
	require.ErrorIs(t, err, slugaliasesservice.ErrMappingCycle)
	require.Equal(t, "recorded 2, unchanged 0, rejected 1\n", out)
}

func TestFailedCommandPrintsNoUsage(t *testing.T) {
	useMemoryBackend(t, seedEdge("x", "y"))

	cmd := Command()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"propose", "y", "x"})

	err := cmd.Execute()
	require.ErrorIs(t, err, slugaliasesservice.ErrMappingCycle)
	require.Empty(t, out.String())
	require.NotContains(t, errOut.String(), "Usage:")
}

func TestImportValidatesAgainstSchema(t *testing.T) {
	store := useMemoryBackend(t)

	testCases := map[string]string{
		"missing aliases": `{}`,
		"missing toSlug":  `{"aliases":[{"fromSlug":"a"}]}`,
		"empty fromSlug":  `{"aliases":[{"fromSlug":"","toSlug":"b"}]}`,
		"unknown field":   `{"aliases":[{"fromSlug":"a","toSlug":"b","weight":1}]}`,
		"not json":        `aliases: []`,
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, "import", writeFile(t, "aliases.json", content))
			require.Error(t, err)
		})
	}

	edges, err := store.ListEdges(context.Background())
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestImportDryRunDoesNotWrite(t *testing.T) {
	store := useMemoryBackend(t)

	out, err := run(t, "import", "--dry-run", writeFile(t, "aliases.json", `{"aliases":[{"fromSlug":"a","toSlug":"b"}]}`))
	require.NoError(t, err)
	require.Contains(t, out, "1 mappings")

	edges, err := store.ListEdges(context.Background())
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestExportThenImportRoundTrip(t *testing.T) {
	useMemoryBackend(t, seedEdge("a", "b"), seedEdge("b", "c"))
	dir := t.TempDir()

	out, err := run(t, "export", "--dest", dir)
	require.NoError(t, err)
	require.Contains(t, out, "exported 2 aliases to "+dir)

	matches, err := filepath.Glob(filepath.Join(dir, "slug-aliases-*.ndjson"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	entries, err := loadImportFile(context.Background(), persistence.NewSchemaValidator(), matches[0])
	require.NoError(t, err)
	require.Equal(t, []importEntry{{FromSlug: "a", ToSlug: "b"}, {FromSlug: "b", ToSlug: "c"}}, entries)

	fresh := useMemoryBackend(t)
	_, err = run(t, "import", matches[0])
	require.NoError(t, err)

	svc := slugaliasesservice.New(fresh, nil, slugaliasesservice.Config{}, zaptest.NewLogger(t))
	require.Equal(t, "c", svc.ResolveCanonicalSlug(context.Background(), "a"))
}

func TestExportLocalRejectsList(t *testing.T) {
	useMemoryBackend(t)
	_, err := run(t, "export", "--dest", t.TempDir(), "--list")
	require.Error(t, err)
}

func TestParseDestination(t *testing.T) {
	testCases := []struct {
		dest       string
		wantBucket string
		wantPrefix string
		wantRemote bool
		wantErr    bool
	}{
		{dest: "gs://exports/dev/slugs/", wantBucket: "exports", wantPrefix: "dev/slugs", wantRemote: true},
		{dest: "gs://exports", wantBucket: "exports", wantRemote: true},
		{dest: "gs:///nobucket", wantErr: true},
		{dest: "./snapshots"},
		{dest: " ", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.dest, func(t *testing.T) {
			bucket, prefix, remote, err := parseDestination(tc.dest)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantBucket, bucket)
			require.Equal(t, tc.wantPrefix, prefix)
			require.Equal(t, tc.wantRemote, remote)
		})
	}
}
