package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the Palmyra profiles admin CLI. Subcommands (aliases, bootstrap, auth) are attached here.
var rootCmd = &cobra.Command{
	Use:           "palmyra-profiles",
	Short:         "Palmyra profiles admin CLI",
	Long:          "Administrative utilities for profile slugs (schema bootstrap, alias inspection and edits, import/export, dev tokens).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
