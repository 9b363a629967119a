package aliases

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	slugaliasesrepo "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/repo"
	slugaliasesservice "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	platformlogging "github.com/zenGate-Global/palmyra-profiles/platform/go/logging"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/storage"
)

type options struct {
	databaseURL string
	schema      string
	logLevel    string
}

type backend struct {
	svc   slugaliasesservice.Service
	close func()
}

// openBackend connects the engine to the configured alias log. Auto-canonicalization stays off: the CLI
// never serves public lookups.
var openBackend = func(ctx context.Context, opts *options, stderr io.Writer) (*backend, error) {
	if opts.databaseURL == "" {
		return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "cli",
		Level:     opts.logLevel,
		Output:    stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:      opts.databaseURL,
		ApplicationName: "palmyra-profiles-cli",
	})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}

	aliasStore, err := persistence.NewSlugAliasStore(ctx, pool, opts.schema)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("init slug alias store: %w", err)
	}

	svc := slugaliasesservice.New(
		slugaliasesrepo.NewPostgresRepository(aliasStore),
		nil,
		slugaliasesservice.Config{AutoCanonicalize: false},
		logger,
	)

	return &backend{
		svc: svc,
		close: func() {
			_ = logger.Sync()
			persistence.ClosePool(pool)
		},
	}, nil
}

// Command groups slug alias helpers.
func Command() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Inspect and edit profile slug aliases",
		Long:  "Resolve slugs, list the alias log, propose mappings, and import or export alias snapshots.",
		// Summary lines already went to stdout when a run fails part way; keep usage out of it.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	cmd.PersistentFlags().StringVar(&opts.schema, "schema", persistence.DefaultSchema, "Postgres schema holding the slug tables")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics written to stderr")

	cmd.AddCommand(
		listCommand(opts),
		resolveCommand(opts),
		membersCommand(opts),
		proposeCommand(opts),
		importCommand(opts),
		exportCommand(opts),
	)
	return cmd
}

func withBackend(cmd *cobra.Command, opts *options, fn func(ctx context.Context, svc slugaliasesservice.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := openBackend(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer b.close()

	return fn(ctx, b.svc)
}

func toSnapshotRecords(edges []slugaliasesservice.Edge) []storage.SnapshotRecord {
	records := make([]storage.SnapshotRecord, 0, len(edges))
	for _, edge := range edges {
		records = append(records, storage.SnapshotRecord{
			FromSlug:  edge.From,
			ToSlug:    edge.To,
			CreatedAt: edge.CreatedAt.UTC(),
			CreatedBy: edge.CreatedBy,
		})
	}
	return records
}
