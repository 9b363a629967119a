package aliases

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	slugaliasesservice "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/storage"
)

func listCommand(opts *options) *cobra.Command {
	var output string

	c := &cobra.Command{
		Use:   "list",
		Short: "Print the raw alias log in write order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "table" && output != "ndjson" {
				return fmt.Errorf("invalid --output %q (use table or ndjson)", output)
			}

			return withBackend(cmd, opts, func(ctx context.Context, svc slugaliasesservice.Service) error {
				edges, err := svc.ListEdges(ctx)
				if err != nil {
					return err
				}

				if output == "ndjson" {
					return storage.WriteNDJSON(cmd.OutOrStdout(), toSnapshotRecords(edges))
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "FROM\tTO\tCREATED AT\tCREATED BY")
				for _, edge := range edges {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", edge.From, edge.To, edge.CreatedAt.UTC().Format(time.RFC3339), edge.CreatedBy)
				}
				return tw.Flush()
			})
		},
	}

	c.Flags().StringVarP(&output, "output", "o", "table", "output format: table or ndjson")
	return c
}

func resolveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <slug>...",
		Short: "Print the canonical slug for each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, svc slugaliasesservice.Service) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, arg := range args {
					result := svc.Lookup(ctx, arg)
					target := result.Input
					if result.Target != nil {
						target = *result.Target
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", result.Input, target, result.Action)
				}
				return tw.Flush()
			})
		},
	}
}

func membersCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "members <slug>",
		Short: "Print the canonical slug and every slug that resolves to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, svc slugaliasesservice.Service) error {
				set := svc.GetSlugAliases(ctx, args[0])
				if set.Canonical == "" {
					return fmt.Errorf("slug %q normalizes to an empty value", args[0])
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "canonical: %s\n", set.Canonical)
				for _, member := range set.Members {
					if member == set.Canonical {
						continue
					}
					fmt.Fprintf(out, "alias: %s\n", member)
				}
				return nil
			})
		},
	}
}
