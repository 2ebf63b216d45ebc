package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/vault-webflow/internal/constants"
	"github.com/oshokin/vault-webflow/internal/logger"
)

// Config holds all configuration settings.
type Config struct {
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// VaultAddress is the Vault server endpoint, e.g. "https://vault.example.com:8200".
	VaultAddress string `mapstructure:"vault_address" env:"VAULT_SERVER_ENDPOINT"`
	// VaultAuthPath is the mount path of the Google account auth plugin.
	VaultAuthPath string `mapstructure:"vault_auth_path" env:"VAULT_AUTH_PATH"`
	// VaultToken is the token the webflow server uses to list roles.
	VaultToken string `mapstructure:"vault_token" env:"VAULT_AUTH_TOKEN"`
	// VaultMaxRetries is the number of retries the Vault client performs on 5xx responses.
	VaultMaxRetries int `mapstructure:"vault_max_retries"`
	// ListenAddress is the address the webflow server listens on.
	ListenAddress string `mapstructure:"listen_address"`
	// WebflowURL is the public URL of the webflow server.
	// The browser command opens it and the server builds the roles form action from its origin.
	WebflowURL string `mapstructure:"webflow_url"`
	// SignInDomains are the domains the browser may visit between the webflow pages,
	// a host matches a domain itself or any of its subdomains.
	SignInDomains []string `mapstructure:"sign_in_domains"`
	// SubmitTarget selects where the login form is posted: "login" or "write".
	SubmitTarget string `mapstructure:"submit_target"`
	// DecodeCode indicates whether the OAuth code is URL-decoded before it is submitted.
	DecodeCode bool `mapstructure:"decode_code"`
	// RoleElementID is the id of the role selection control.
	RoleElementID string `mapstructure:"role_element_id"`
	// CopyButtonID is the id of the button copying the token.
	CopyButtonID string `mapstructure:"copy_button_id"`
	// TokenInputID is the id of the text input displaying the token.
	TokenInputID string `mapstructure:"token_input_id"`
	// ClientToken is the last Vault token obtained through the webflow.
	ClientToken string `mapstructure:"client_token"`
	// RequestTimeout is the timeout of outbound HTTP requests (e.g. "30s").
	RequestTimeout string `mapstructure:"request_timeout"`
	// RolesCacheTTL is how long the server caches the list of Vault roles (e.g. "30s").
	RolesCacheTTL string `mapstructure:"roles_cache_ttl"`
	// LoginTimeout is how long the browser command waits for the user to log in (e.g. "10m").
	LoginTimeout string `mapstructure:"login_timeout"`
	// MaxLogLength caps logged HTTP dumps (e.g. "1 MB").
	MaxLogLength string `mapstructure:"max_log_length"`
	// ConfigFile is the path the configuration was loaded from.
	ConfigFile string `mapstructure:"-"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedRequestTimeout is the parsed request timeout.
	ParsedRequestTimeout time.Duration
	// ParsedRolesCacheTTL is the parsed roles cache TTL.
	ParsedRolesCacheTTL time.Duration
	// ParsedLoginTimeout is the parsed browser login timeout.
	ParsedLoginTimeout time.Duration
	// ParsedMaxLogLength is the parsed maximum log dump length in bytes.
	ParsedMaxLogLength uint64
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".vault-webflow.yaml"

	// DefaultMaxLogLength is the default maximum size (in bytes) for logged HTTP dumps.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// SubmitTargetLogin posts the login form to "/login" on the current origin.
	SubmitTargetLogin = "login"
	// SubmitTargetWrite posts the login form to "<origin>/write".
	SubmitTargetWrite = "write"

	// clientTokenKey is the YAML key updated by SaveConfig.
	clientTokenKey = "client_token"
)

// Static error definitions for better error handling.
var (
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidSubmitTarget indicates that submit_target is neither "login" nor "write".
	ErrInvalidSubmitTarget = errors.New("invalid submit_target")
	// ErrEmptyElementID indicates that one of the page element ids is empty.
	ErrEmptyElementID = errors.New("page element id cannot be empty")
	// ErrInvalidRequestTimeout indicates that the request timeout is not positive.
	ErrInvalidRequestTimeout = errors.New("request_timeout must be positive")
	// ErrInvalidRolesCacheTTL indicates that the roles cache TTL is negative.
	ErrInvalidRolesCacheTTL = errors.New("roles_cache_ttl cannot be negative")
	// ErrInvalidLoginTimeout indicates that the login timeout is not positive.
	ErrInvalidLoginTimeout = errors.New("login_timeout must be positive")
	// ErrInvalidVaultRetries indicates that vault_max_retries is negative.
	ErrInvalidVaultRetries = errors.New("vault_max_retries cannot be negative")
	// ErrEmptyVaultAddress indicates that the Vault address is missing.
	ErrEmptyVaultAddress = errors.New("vault address cannot be empty")
	// ErrEmptyVaultAuthPath indicates that the Vault auth mount path is missing.
	ErrEmptyVaultAuthPath = errors.New("vault auth path cannot be empty")
	// ErrEmptyVaultToken indicates that the Vault token is missing.
	ErrEmptyVaultToken = errors.New("vault token cannot be empty")
	// ErrEmptyListenAddress indicates that the listen address is missing.
	ErrEmptyListenAddress = errors.New("listen address cannot be empty")
	// ErrInvalidWebflowURL indicates that webflow_url is not an absolute http(s) URL.
	ErrInvalidWebflowURL = errors.New("webflow_url must be an absolute http(s) URL")
	// ErrInvalidSignInDomain indicates that one of sign_in_domains is empty or not a bare domain.
	ErrInvalidSignInDomain = errors.New("invalid sign_in_domains entry")
	// ErrInvalidConfigRoot indicates that the configuration file is not a YAML mapping.
	ErrInvalidConfigRoot = errors.New("config file root must be a mapping")
)

// defaults are applied before the configuration file is read.
//
//nolint:gochecknoglobals // Immutable table of default values.
var defaults = map[string]any{
	"log_level":         "info",
	"vault_address":     "http://127.0.0.1:8200",
	"vault_auth_path":   "google",
	"vault_max_retries": 2,
	"listen_address":    ":29747",
	"webflow_url":       "http://localhost:29747",
	"sign_in_domains":   []string{"google.com", "youtube.com", "gstatic.com"},
	"submit_target":     SubmitTargetWrite,
	"decode_code":       true,
	"role_element_id":   "role-list",
	"copy_button_id":    "copy-btn",
	"token_input_id":    "token-txtbox",
	"request_timeout":   "30s",
	"roles_cache_ttl":   "30s",
	"login_timeout":     "10m",
	"max_log_length":    "1 MB",
}

// LoadConfig loads configuration settings from a YAML file and the environment.
// A missing default configuration file is not an error, the defaults are used instead.
func LoadConfig(configFilename string) (*Config, error) {
	isDefaultFile := configFilename == ""
	if isDefaultFile {
		configFilename = DefaultConfigFilename
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(configFilename)

	if err := v.ReadInConfig(); err != nil {
		if !isDefaultFile || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.ConfigFile = configFilename

	return &cfg, nil
}

// ValidateConfig checks the settings shared by all commands and sets derived fields.
//
//nolint:cyclop // Validation functions naturally have high complexity due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	cfg.SubmitTarget = strings.ToLower(strings.TrimSpace(cfg.SubmitTarget))
	if cfg.SubmitTarget != SubmitTargetLogin && cfg.SubmitTarget != SubmitTargetWrite {
		return fmt.Errorf("%w: '%s', must be '%s' or '%s'",
			ErrInvalidSubmitTarget, cfg.SubmitTarget, SubmitTargetLogin, SubmitTargetWrite)
	}

	for name, id := range map[string]string{
		"role_element_id": cfg.RoleElementID,
		"copy_button_id":  cfg.CopyButtonID,
		"token_input_id":  cfg.TokenInputID,
	} {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %s", ErrEmptyElementID, name)
		}
	}

	cfg.ParsedRequestTimeout, err = time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse request timeout: %w", err)
	}

	if cfg.ParsedRequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	cfg.ParsedRolesCacheTTL, err = time.ParseDuration(cfg.RolesCacheTTL)
	if err != nil {
		return fmt.Errorf("failed to parse roles cache TTL: %w", err)
	}

	if cfg.ParsedRolesCacheTTL < 0 {
		return ErrInvalidRolesCacheTTL
	}

	cfg.ParsedLoginTimeout, err = time.ParseDuration(cfg.LoginTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse login timeout: %w", err)
	}

	if cfg.ParsedLoginTimeout <= 0 {
		return ErrInvalidLoginTimeout
	}

	cfg.ParsedMaxLogLength = DefaultMaxLogLength

	if maxLogLength := strings.TrimSpace(cfg.MaxLogLength); maxLogLength != "" {
		cfg.ParsedMaxLogLength, err = humanize.ParseBytes(maxLogLength)
		if err != nil {
			return fmt.Errorf("failed to parse max log length: %w", err)
		}
	}

	if cfg.VaultMaxRetries < 0 {
		return ErrInvalidVaultRetries
	}

	return nil
}

// ValidateServerConfig checks the settings required by the webflow server.
func ValidateServerConfig(cfg *Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.VaultAddress) == "" {
		return ErrEmptyVaultAddress
	}

	if _, err := url.ParseRequestURI(cfg.VaultAddress); err != nil {
		return fmt.Errorf("failed to parse vault address: %w", err)
	}

	cfg.VaultAuthPath = strings.Trim(strings.TrimSpace(cfg.VaultAuthPath), "/")
	if cfg.VaultAuthPath == "" {
		return ErrEmptyVaultAuthPath
	}

	if strings.TrimSpace(cfg.VaultToken) == "" {
		return ErrEmptyVaultToken
	}

	if strings.TrimSpace(cfg.ListenAddress) == "" {
		return ErrEmptyListenAddress
	}

	// An empty webflow_url makes the server build links from the request host.
	if strings.TrimSpace(cfg.WebflowURL) != "" {
		return validateWebflowURL(cfg.WebflowURL)
	}

	return nil
}

// ValidateBrowserConfig checks the settings required by the browser login command.
func ValidateBrowserConfig(cfg *Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	if err := validateWebflowURL(cfg.WebflowURL); err != nil {
		return err
	}

	domains, err := normalizeSignInDomains(cfg.SignInDomains)
	if err != nil {
		return err
	}

	cfg.SignInDomains = domains

	return nil
}

// normalizeSignInDomains lowercases the domains and strips the leading dot of entries like ".okta.com".
func normalizeSignInDomains(domains []string) ([]string, error) {
	normalized := make([]string, 0, len(domains))

	for _, domain := range domains {
		domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain == "" || strings.ContainsAny(domain, "/:@ ") {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidSignInDomain, domain)
		}

		normalized = append(normalized, domain)
	}

	return normalized, nil
}

// validateWebflowURL checks that webflowURL is an absolute http(s) URL.
func validateWebflowURL(webflowURL string) error {
	parsed, err := url.Parse(webflowURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: '%s'", ErrInvalidWebflowURL, webflowURL)
	}

	return nil
}

// SaveConfig writes cfg.ClientToken back to the configuration file while preserving its format and order.
func SaveConfig(cfg *Config) error {
	configFile := cfg.ConfigFile
	if configFile == "" {
		configFile = DefaultConfigFilename
	}

	originalContent, err := os.ReadFile(configFile)
	if err != nil {
		return handleMissingConfigFile(configFile, cfg.ClientToken, err)
	}

	// Parse YAML while preserving order using yaml.Node.
	var node yaml.Node
	if err = yaml.Unmarshal(originalContent, &node); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err = setValueInNode(&node, clientTokenKey, cfg.ClientToken); err != nil {
		return fmt.Errorf("failed to store %s in %s: %w", clientTokenKey, configFile, err)
	}

	newContent, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFile, newContent, constants.SecretFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// WriteFile keeps the mode of an existing file.
	if err = os.Chmod(configFile, constants.SecretFilePermissions); err != nil {
		return fmt.Errorf("failed to restrict config file permissions: %w", err)
	}

	return nil
}

// handleMissingConfigFile creates a new config file if it doesn't exist.
func handleMissingConfigFile(configFile, clientToken string, err error) error {
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	v.Set(clientTokenKey, clientToken)

	if err = v.SafeWriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err = os.Chmod(configFile, constants.SecretFilePermissions); err != nil {
		return fmt.Errorf("failed to restrict config file permissions: %w", err)
	}

	return nil
}

// setValueInNode sets a top-level scalar in the YAML document, appending the key when it is absent.
func setValueInNode(node *yaml.Node, key, value string) error {
	// An empty document gets a fresh mapping.
	if len(node.Content) == 0 {
		node.Kind = yaml.DocumentNode
		node.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	mapNode := node.Content[0]
	if mapNode.Kind != yaml.MappingNode {
		return fmt.Errorf("%w, got %s", ErrInvalidConfigRoot, mapNode.Tag)
	}

	// Key-value pairs are stored as alternating nodes.
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		keyNode := mapNode.Content[i]
		valueNode := mapNode.Content[i+1]

		if keyNode.Value != key {
			continue
		}

		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = value

		if valueNode.Style == 0 {
			valueNode.Style = yaml.DoubleQuotedStyle
		}

		return nil
	}

	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.DoubleQuotedStyle},
	)

	return nil
}
