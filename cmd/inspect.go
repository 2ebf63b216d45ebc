package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/vault-webflow/internal/app"
)

//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
var inspectCmd = &cobra.Command{
	Use:   "inspect {url} [keys...]",
	Short: "Print the origin and query parameters of a URL",
	Long: `Prints the origin, the query and the raw query parameters of a URL as YAML.

When keys are given only those parameters are printed, absent ones as "undefined".
Values are not URL-decoded.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app.ExecuteInspectCommand(cmd.Context(), args[0], args[1:])
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	rootCmd.AddCommand(inspectCmd)
}
