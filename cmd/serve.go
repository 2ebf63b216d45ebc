package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/vault-webflow/internal/app"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/logger"
)

//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing and execution.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the webflow pages in front of Vault",
	Long: `Runs the webflow HTTP server.

Routes:
  GET  /         redirects to the Google consent page obtained from Vault
  GET  /roles    lets the user pick a Vault role, Google redirects here
  POST /login    exchanges the code and the role for a Vault token
  POST /write    same as /login, used when submit_target is "write"
  GET  /healthz  liveness check

The Vault address, auth mount path and token can also be set with the
VAULT_SERVER_ENDPOINT, VAULT_AUTH_PATH and VAULT_AUTH_TOKEN environment variables.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := bindServeFlagsToConfig(cmd.Flags(), appConfig); err != nil {
			logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
		}

		app.ExecuteServeCommand(cmd.Context(), appConfig)
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	registerServeFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func registerServeFlags(flags *pflag.FlagSet) {
	flags.StringP(
		"listen",
		"l",
		"",
		"address to listen on, for example: :29747, 127.0.0.1:8080.")

	flags.String(
		"vault-address",
		"",
		"Vault server endpoint, for example: https://vault.example.com:8200.")

	flags.String(
		"auth-path",
		"",
		"mount path of the Google account auth plugin.")

	flags.StringP(
		"target",
		"t",
		"",
		"where the roles page posts the login form: login or write.")

	flags.String(
		"public-url",
		"",
		"URL the browser uses to reach the webflow, the roles form posts to its host, for example: https://webflow.example.com.")

	flags.String(
		"roles-cache-ttl",
		"",
		"how long the role list is cached, 0 disables caching, for example: 30s, 5m.")
}

func bindServeFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("listen"); flag != nil && flag.Changed {
		cfg.ListenAddress, _ = flags.GetString("listen")
	}

	if flag := flags.Lookup("vault-address"); flag != nil && flag.Changed {
		cfg.VaultAddress, _ = flags.GetString("vault-address")
	}

	if flag := flags.Lookup("auth-path"); flag != nil && flag.Changed {
		cfg.VaultAuthPath, _ = flags.GetString("auth-path")
	}

	if flag := flags.Lookup("target"); flag != nil && flag.Changed {
		cfg.SubmitTarget, _ = flags.GetString("target")
	}

	if flag := flags.Lookup("public-url"); flag != nil && flag.Changed {
		cfg.WebflowURL, _ = flags.GetString("public-url")
	}

	if flag := flags.Lookup("roles-cache-ttl"); flag != nil && flag.Changed {
		cfg.RolesCacheTTL, _ = flags.GetString("roles-cache-ttl")
	}

	return config.ValidateServerConfig(cfg)
}
