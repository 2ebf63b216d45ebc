package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/vault-webflow/internal/app"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/logger"
)

//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
var loginCmd = &cobra.Command{
	Use:   "login [flags] {roles-page-url}",
	Short: "Complete the webflow without a browser",
	Long: `Completes the webflow from the roles page URL Google redirected to.

The login process:
1. The roles page is loaded, e.g. https://webflow.example.com/roles?code=4%2F0Ab...
2. The role preselected on the page is used, unless --role picks another one
3. A login form with the code and the role is posted to /login or <origin>/write
4. The token shown on the resulting page is copied to the clipboard and printed

Use --save to store the token in the configuration file as client_token.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := bindLoginFlagsToConfig(cmd.Flags(), appConfig); err != nil {
			logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
		}

		role, _ := cmd.Flags().GetString("role")
		save, _ := cmd.Flags().GetBool("save")

		app.ExecuteLoginCommand(cmd.Context(), appConfig, app.LoginOptions{
			PageURL: args[0],
			Role:    role,
			Save:    save,
		})
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	registerLoginFlags(loginCmd.Flags())
	rootCmd.AddCommand(loginCmd)
}

func registerLoginFlags(flags *pflag.FlagSet) {
	flags.StringP(
		"role",
		"r",
		"",
		"Vault role to log in with (default is the role preselected on the page).")

	flags.StringP(
		"target",
		"t",
		"",
		"where the login form is posted: login or write.")

	flags.Bool(
		"decode",
		false,
		"URL-decode the code before it is submitted.")

	flags.BoolP(
		"save",
		"s",
		false,
		"save the issued token to the configuration file.")
}

func bindLoginFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("target"); flag != nil && flag.Changed {
		cfg.SubmitTarget, _ = flags.GetString("target")
	}

	if flag := flags.Lookup("decode"); flag != nil && flag.Changed {
		cfg.DecodeCode, _ = flags.GetBool("decode")
	}

	return config.ValidateConfig(cfg)
}
