package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/oshokin/vault-webflow/internal/client/vault"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/logger"
	"github.com/oshokin/vault-webflow/internal/service/form"
)

const (
	// readHeaderTimeout bounds the time to read request headers.
	readHeaderTimeout = 10 * time.Second
	// shutdownTimeout bounds the graceful shutdown.
	shutdownTimeout = 5 * time.Second

	// rolesCacheKey is the single key of the roles cache.
	rolesCacheKey = "roles"
)

// Server is the webflow HTTP server.
type Server struct {
	cfg    *config.Config
	vault  vault.Client
	target form.Target
	pages  pages
	// origin is the public scheme and host of the webflow, empty when the request host is used.
	origin string
	// roles caches the role list, nil when caching is disabled.
	roles *expirable.LRU[string, []string]
}

// New creates the webflow server from the validated server configuration.
func New(cfg *config.Config, vaultClient vault.Client) (*Server, error) {
	target, err := form.ParseTarget(cfg.SubmitTarget)
	if err != nil {
		return nil, err
	}

	loaded, err := loadPages()
	if err != nil {
		return nil, err
	}

	origin, err := publicOrigin(cfg.WebflowURL)
	if err != nil {
		return nil, err
	}

	server := &Server{
		cfg:    cfg,
		vault:  vaultClient,
		target: target,
		pages:  loaded,
		origin: origin,
	}

	// A zero TTL disables caching, expirable treats it as "never expires".
	if cfg.ParsedRolesCacheTTL > 0 {
		server.roles = expirable.NewLRU[string, []string](1, nil, cfg.ParsedRolesCacheTTL)
	}

	return server, nil
}

// publicOrigin returns "scheme://host" of the configured webflow URL, or "" when none is configured.
func publicOrigin(webflowURL string) (string, error) {
	webflowURL = strings.TrimSpace(webflowURL)
	if webflowURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(webflowURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: '%s'", config.ErrInvalidWebflowURL, webflowURL)
	}

	return strings.ToLower(parsed.Scheme) + "://" + parsed.Host, nil
}

// Handler returns the routes wrapped in the request ID and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /roles", s.handleRoles)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /write", s.handleLogin)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return withRequestID(withLogging(mux))
}

// ListenAndServe listens on the configured address and serves until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}

	return s.Serve(ctx, listener)
}

// Serve serves on listener until the context ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	serveErr := make(chan error, 1)

	logger.Infof(ctx, "Webflow server listening on %s", listener.Addr())

	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		logger.Info(ctx, "Shutting down webflow server")

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down webflow server: %w", err)
		}

		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to serve: %w", err)
	}
}

// listRoles returns the cached role list or fetches it from Vault.
func (s *Server) listRoles(ctx context.Context) ([]string, error) {
	if s.roles != nil {
		if roles, ok := s.roles.Get(rolesCacheKey); ok {
			return roles, nil
		}
	}

	roles, err := s.vault.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	if s.roles != nil {
		s.roles.Add(rolesCacheKey, roles)
	}

	return roles, nil
}
