package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/vault-webflow/internal/app"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/logger"
)

//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Sign in through the webflow in a browser window",
	Long: `Opens a browser window on the webflow for you to sign in.

The login process:
1. Browser opens at webflow_url and is redirected to the Google sign-in
2. Sign in with your Google account
3. Pick a Vault role and click "Log in"
4. Wait for the token page to appear

Leaving the webflow and sign_in_domains aborts the login. Accounts federated
to another identity provider need its domain, e.g. --allow-domain okta.com.

The token is then copied to the clipboard and printed.
Use --save to store it in the configuration file as client_token.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := bindBrowserFlagsToConfig(cmd.Flags(), appConfig); err != nil {
			logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
		}

		save, _ := cmd.Flags().GetBool("save")

		app.ExecuteBrowserCommand(cmd.Context(), appConfig, save)
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	registerBrowserFlags(browserCmd.Flags())
	rootCmd.AddCommand(browserCmd)
}

func registerBrowserFlags(flags *pflag.FlagSet) {
	flags.StringP(
		"url",
		"u",
		"",
		"webflow URL to open, for example: https://webflow.example.com.")

	flags.StringSlice(
		"allow-domain",
		nil,
		"extra domain the sign-in may pass through, e.g. the identity provider: okta.com. Repeatable.")

	flags.String(
		"timeout",
		"",
		"how long to wait for the sign-in, for example: 5m, 1h.")

	flags.BoolP(
		"save",
		"s",
		false,
		"save the issued token to the configuration file.")
}

func bindBrowserFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("url"); flag != nil && flag.Changed {
		cfg.WebflowURL, _ = flags.GetString("url")
	}

	if flag := flags.Lookup("timeout"); flag != nil && flag.Changed {
		cfg.LoginTimeout, _ = flags.GetString("timeout")
	}

	if flag := flags.Lookup("allow-domain"); flag != nil && flag.Changed {
		domains, _ := flags.GetStringSlice("allow-domain")
		cfg.SignInDomains = append(cfg.SignInDomains, domains...)
	}

	return config.ValidateBrowserConfig(cfg)
}
