package vault

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/logger"
	http_transport "github.com/oshokin/vault-webflow/internal/transport/http"
)

// Client talks to the Google account auth plugin.
type Client interface {
	// GetCodeURL returns the Google OAuth consent URL.
	GetCodeURL(ctx context.Context) (string, error)
	// ListRoles returns the names of the configured roles.
	ListRoles(ctx context.Context) ([]string, error)
	// Login exchanges a Google OAuth code for a Vault token bound to role.
	Login(ctx context.Context, code, role string) (*LoginResult, error)
}

// ClientImpl implements Client with the official Vault API client.
type ClientImpl struct {
	// client is the Vault API client authenticated with the service token.
	client *api.Client
	// authPath is the mount path of the plugin without slashes.
	authPath string
}

// Static error definitions for better error handling.
var (
	// ErrConnection indicates that Vault could not be reached.
	ErrConnection = errors.New("vault server is unreachable")
	// ErrForbidden indicates a 403 response, usually a service token without the required policy.
	ErrForbidden = errors.New("vault denied the request")
	// ErrInvalidRequest indicates a 400 response, e.g. an unconfigured plugin or an unauthorized role.
	ErrInvalidRequest = errors.New("vault rejected the request")
	// ErrMissingData indicates a response without the expected data, usually an unmounted plugin.
	ErrMissingData = errors.New("vault response has no data")
)

const (
	codeURLPathFormat = "auth/%s/code_url"
	rolePathFormat    = "auth/%s/role"
	loginPathFormat   = "auth/%s/login"
)

// NewClient creates a Vault client from the validated server configuration.
func NewClient(cfg *config.Config) (Client, error) {
	vaultConfig := api.DefaultConfig()
	if vaultConfig.Error != nil {
		return nil, fmt.Errorf("failed to read vault environment: %w", vaultConfig.Error)
	}

	vaultConfig.Address = cfg.VaultAddress
	vaultConfig.MaxRetries = cfg.VaultMaxRetries

	if cfg.ParsedRequestTimeout > 0 {
		vaultConfig.Timeout = cfg.ParsedRequestTimeout
	}

	// Wrap the pooled transport, it carries the TLS settings from the environment.
	vaultConfig.HttpClient.Transport = http_transport.NewDefaultTransport(
		vaultConfig.HttpClient.Transport,
		http_transport.DefaultUserAgent(),
		cfg.ParsedMaxLogLength)

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.VaultToken)

	return &ClientImpl{
		client:   client,
		authPath: cfg.VaultAuthPath,
	}, nil
}

// GetCodeURL returns the Google OAuth consent URL.
func (c *ClientImpl) GetCodeURL(ctx context.Context) (string, error) {
	secret, err := c.client.Logical().ReadWithContext(ctx, fmt.Sprintf(codeURLPathFormat, c.authPath))
	if err != nil {
		return "", classifyError(err)
	}

	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: code_url", ErrMissingData)
	}

	codeURL, ok := secret.Data["url"].(string)
	if !ok || codeURL == "" {
		return "", fmt.Errorf("%w: code_url has no url", ErrMissingData)
	}

	return codeURL, nil
}

// ListRoles returns the names of the configured roles.
// Vault answers 404 to a list without results, which yields an empty slice.
func (c *ClientImpl) ListRoles(ctx context.Context) ([]string, error) {
	secret, err := c.client.Logical().ListWithContext(ctx, fmt.Sprintf(rolePathFormat, c.authPath))
	if err != nil {
		return nil, classifyError(err)
	}

	if secret == nil || secret.Data == nil {
		return []string{}, nil
	}

	keys, ok := secret.Data["keys"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: role list has no keys", ErrMissingData)
	}

	roles := make([]string, 0, len(keys))

	for _, key := range keys {
		if role, isString := key.(string); isString {
			roles = append(roles, role)
		}
	}

	return roles, nil
}

// Login exchanges a Google OAuth code for a Vault token bound to role.
func (c *ClientImpl) Login(ctx context.Context, code, role string) (*LoginResult, error) {
	secret, err := c.client.Logical().WriteWithContext(ctx, fmt.Sprintf(loginPathFormat, c.authPath), map[string]any{
		"code": code,
		"role": role,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return nil, fmt.Errorf("%w: login returned no auth", ErrMissingData)
	}

	logger.DebugKV(ctx, "Vault token issued",
		"role", role,
		"policies", secret.Auth.Policies,
		"lease_duration", secret.Auth.LeaseDuration)

	return &LoginResult{
		ClientToken:   secret.Auth.ClientToken,
		Accessor:      secret.Auth.Accessor,
		Policies:      secret.Auth.Policies,
		Metadata:      secret.Auth.Metadata,
		LeaseDuration: time.Duration(secret.Auth.LeaseDuration) * time.Second,
		Renewable:     secret.Auth.Renewable,
	}, nil
}

// classifyError maps Vault API errors onto the package sentinel errors.
func classifyError(err error) error {
	var responseErr *api.ResponseError
	if errors.As(err, &responseErr) {
		switch responseErr.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrForbidden, err)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		return err
	}

	var (
		urlErr *url.Error
		netErr net.Error
	)

	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return err
}
