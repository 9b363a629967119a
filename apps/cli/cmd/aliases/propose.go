package aliases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	slugaliasesservice "github.com/zenGate-Global/palmyra-profiles/domains/slug-aliases/be/service"
	"github.com/zenGate-Global/palmyra-profiles/platform/go/requesttrace"
)

func proposeCommand(opts *options) *cobra.Command {
	var actor string

	c := &cobra.Command{
		Use:   "propose <from-slug> <to-slug>",
		Short: "Record that from-slug should resolve to to-slug (collapsed to its final target)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, svc slugaliasesservice.Service) error {
				result, err := svc.ProposeMapping(ctx, cliAudit(actor), args[0], args[1])
				if err != nil {
					return err
				}
				printMappingResult(cmd, result)
				return nil
			})
		},
	}

	c.Flags().StringVar(&actor, "actor", "", "identity recorded as created_by (defaults to system)")
	return c
}

// cliAudit stamps CLI writes. Each invocation gets its own request id so log lines can be correlated.
func cliAudit(actor string) requesttrace.AuditInfo {
	audit := requesttrace.System("cli-" + uuid.NewString())
	if actor != "" {
		audit.ActorKind = requesttrace.ActorKindUser
		audit.UserID = &actor
	}
	return audit
}

func printMappingResult(cmd *cobra.Command, result slugaliasesservice.MappingResult) {
	status := "unchanged"
	if result.Updated {
		status = "recorded"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", status, result.FromSlug, result.ToSlug)
}
