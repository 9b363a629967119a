package aliases

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	slugaliasesservice "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/gcp"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/storage"
)

const gcsScheme = "gs://"

func newGCSClient(ctx context.Context, credentialsPath string) (*gcs.Client, error) {
	return gcs.NewClient(ctx, gcp.ClientOptions(credentialsPath)...)
}

// parseDestination splits gs://bucket/prefix; anything else is a local directory.
func parseDestination(dest string) (bucket, prefix string, remote bool, err error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", "", false, fmt.Errorf("--dest is required")
	}
	if !strings.HasPrefix(dest, gcsScheme) {
		return "", "", false, nil
	}

	rest := strings.TrimPrefix(dest, gcsScheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false, fmt.Errorf("invalid destination %q: bucket is missing", dest)
	}
	return bucket, strings.Trim(prefix, "/"), true, nil
}

func exportCommand(opts *options) *cobra.Command {
	var (
		dest        string
		credentials string
		list        bool
	)

	c := &cobra.Command{
		Use:   "export",
		Short: "Write an NDJSON snapshot of the alias log to a directory or gs://bucket/prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			bucket, prefix, remote, err := parseDestination(dest)
			if err != nil {
				return err
			}

			var exporter storage.Exporter
			if remote {
				client, err := newGCSClient(ctx, credentials)
				if err != nil {
					return fmt.Errorf("init gcs client: %w", err)
				}
				defer client.Close()

				gcsExporter := storage.NewGCSExporter(client, bucket, prefix)
				if list {
					names, err := gcsExporter.List(ctx)
					if err != nil {
						return err
					}
					for _, name := range names {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}
					return nil
				}
				exporter = gcsExporter
			} else {
				if list {
					return fmt.Errorf("--list is only supported for gs:// destinations")
				}
				exporter = storage.NewLocalExporter(dest)
			}

			return withBackend(cmd, opts, func(ctx context.Context, svc slugaliasesservice.Service) error {
				location, count, err := exportSnapshot(ctx, svc, exporter, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d aliases to %s\n", count, location)
				return nil
			})
		},
	}

	c.Flags().StringVar(&dest, "dest", "", "local directory or gs://bucket/prefix")
	c.Flags().StringVar(&credentials, "credentials", "", "service account JSON for GCS (defaults to ambient credentials)")
	c.Flags().BoolVar(&list, "list", false, "list existing snapshots at a gs:// destination instead of exporting")
	_ = c.MarkFlagRequired("dest")
	return c
}

func exportSnapshot(ctx context.Context, svc slugaliasesservice.Service, exporter storage.Exporter, now time.Time) (string, int, error) {
	edges, err := svc.ListEdges(ctx)
	if err != nil {
		return "", 0, err
	}

	location, err := exporter.Export(ctx, storage.SnapshotName(now), toSnapshotRecords(edges))
	if err != nil {
		return "", 0, fmt.Errorf("export snapshot: %w", err)
	}
	return location, len(edges), nil
}
