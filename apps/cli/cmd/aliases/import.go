package aliases

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	slugaliasesservice "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/requesttrace"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/storage"
)

//go:embed import.schema.json
var importSchemaJSON []byte

var importSchema = persistence.SchemaDocument{Name: "slug-alias-import", Definition: importSchemaJSON}

type importEntry struct {
	FromSlug string `json:"fromSlug"`
	ToSlug   string `json:"toSlug"`
}

type importFile struct {
	Aliases []importEntry `json:"aliases"`
}

type importSummary struct {
	Recorded  int
	Unchanged int
	Rejected  int
}

func importCommand(opts *options) *cobra.Command {
	var (
		dryRun          bool
		continueOnError bool
		actor           string
	)

	c := &cobra.Command{
		Use:   "import <file>",
		Short: "Propose every mapping from a JSON (or exported NDJSON) file, in file order",
		Long: "Validates the file against the import schema, then sends each mapping through the same writer as the " +
			"admin endpoint, so chains are collapsed and cycles rejected. Files ending in .ndjson are read as exports.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			entries, err := loadImportFile(ctx, persistence.NewSchemaValidator(), args[0])
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d mappings\n", args[0], len(entries))
				return nil
			}

			return withBackend(cmd, opts, func(ctx context.Context, svc slugaliasesservice.Service) error {
				summary, err := applyImport(ctx, cmd, svc, cliAudit(actor), entries, continueOnError)
				fmt.Fprintf(cmd.OutOrStdout(), "recorded %d, unchanged %d, rejected %d\n", summary.Recorded, summary.Unchanged, summary.Rejected)
				return err
			})
		},
	}

	c.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	c.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep going after a rejected mapping")
	c.Flags().StringVar(&actor, "actor", "", "identity recorded as created_by (defaults to system)")
	return c
}

// loadImportFile reads and validates an import document. NDJSON exports are converted to the
// document shape first so both formats go through the same schema.
func loadImportFile(ctx context.Context, validator *persistence.SchemaValidator, path string) ([]importEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".ndjson") {
		records, err := storage.ReadNDJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		doc := importFile{Aliases: make([]importEntry, 0, len(records))}
		for _, rec := range records {
			doc.Aliases = append(doc.Aliases, importEntry{FromSlug: rec.FromSlug, ToSlug: rec.ToSlug})
		}
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
	}

	if err := validator.Validate(ctx, importSchema, raw); err != nil {
		return nil, fmt.Errorf("invalid import file %s: %w", path, err)
	}

	var doc importFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	return doc.Aliases, nil
}

func applyImport(ctx context.Context, cmd *cobra.Command, svc slugaliasesservice.Service, audit requesttrace.AuditInfo, entries []importEntry, continueOnError bool) (importSummary, error) {
	var summary importSummary
	var errs []error

	for i, entry := range entries {
		result, err := svc.ProposeMapping(ctx, audit, entry.FromSlug, entry.ToSlug)
		if err != nil {
			summary.Rejected++
			wrapped := fmt.Errorf("mapping %d (%s -> %s): %w", i+1, entry.FromSlug, entry.ToSlug, err)
			if errors.Is(err, slugaliasesservice.ErrStoreUnavailable) || !continueOnError {
				return summary, wrapped
			}
			fmt.Fprintln(cmd.ErrOrStderr(), wrapped)
			errs = append(errs, wrapped)
			continue
		}

		if result.Updated {
			summary.Recorded++
		} else {
			summary.Unchanged++
		}
	}

	return summary, errors.Join(errs...)
}
