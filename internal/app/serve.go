package app

import (
	"context"

	"github.com/oshokin/vault-webflow/internal/client/vault"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/logger"
	"github.com/oshokin/vault-webflow/internal/server"
)

// ExecuteServeCommand runs the webflow server until the context is canceled.
func ExecuteServeCommand(ctx context.Context, cfg *config.Config) {
	vaultClient, err := vault.NewClient(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize vault client: %v", err)
	}

	srv, err := server.New(cfg, vaultClient)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize webflow server: %v", err)
	}

	logger.Infof(ctx, "Serving the webflow on %s (vault: %s, auth path: %s, submit target: %s)",
		cfg.ListenAddress, cfg.VaultAddress, cfg.VaultAuthPath, cfg.SubmitTarget)

	if err = srv.ListenAndServe(ctx); err != nil {
		logger.Fatalf(ctx, "Webflow server failed: %v", err)
	}

	logger.Info(ctx, "Webflow server stopped")
}
