package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/vault-webflow/internal/constants"
)

const testConfigContent = `
# Webflow settings.
log_level: "debug"
vault_address: "https://vault.example.com:8200"
vault_auth_path: "google-acc"
vault_token: "hvs.service"
listen_address: ":8080"
submit_target: "login"
decode_code: false
client_token: ""
request_timeout: "5s"
`

// validConfig returns a configuration that passes every validation.
func validConfig() *Config {
	return &Config{
		LogLevel:       "info",
		VaultAddress:   "http://127.0.0.1:8200",
		VaultAuthPath:  "google",
		VaultToken:     "hvs.service",
		ListenAddress:  ":29747",
		WebflowURL:     "http://localhost:29747",
		SubmitTarget:   SubmitTargetWrite,
		DecodeCode:     true,
		RoleElementID:  "role-list",
		CopyButtonID:   "copy-btn",
		TokenInputID:   "token-txtbox",
		RequestTimeout: "30s",
		RolesCacheTTL:  "30s",
		LoginTimeout:   "10m",
		MaxLogLength:   "1 MB",
	}
}

// TestLoadConfig tests the LoadConfig function.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		content       string
		expectError   string
		expectedCheck func(*testing.T, *Config)
	}{
		{
			name:    "values from file override defaults",
			content: testConfigContent,
			expectedCheck: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "https://vault.example.com:8200", cfg.VaultAddress)
				assert.Equal(t, "google-acc", cfg.VaultAuthPath)
				assert.Equal(t, "hvs.service", cfg.VaultToken)
				assert.Equal(t, SubmitTargetLogin, cfg.SubmitTarget)
				assert.False(t, cfg.DecodeCode)
				assert.Equal(t, "5s", cfg.RequestTimeout)
			},
		},
		{
			name:    "defaults fill missing keys",
			content: "log_level: warn\n",
			expectedCheck: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "warn", cfg.LogLevel)
				assert.Equal(t, "role-list", cfg.RoleElementID)
				assert.Equal(t, "copy-btn", cfg.CopyButtonID)
				assert.Equal(t, "token-txtbox", cfg.TokenInputID)
				assert.Equal(t, SubmitTargetWrite, cfg.SubmitTarget)
				assert.True(t, cfg.DecodeCode)
				assert.Equal(t, ":29747", cfg.ListenAddress)
			},
		},
		{
			name:        "invalid yaml",
			content:     "invalid: yaml: content: [unclosed\n",
			expectError: "failed to read config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), constants.DefaultFilePermissions))

			cfg, err := LoadConfig(configPath)

			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, configPath, cfg.ConfigFile)
			tt.expectedCheck(t, cfg)
		})
	}
}

// TestLoadConfig_MissingExplicitFile tests that an explicitly requested file must exist.
func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config from file")
	assert.Nil(t, cfg)
}

// TestLoadConfig_MissingDefaultFile tests that the defaults are used when the default file is absent.
func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigFilename, cfg.ConfigFile)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, uint64(1000*1000), cfg.ParsedMaxLogLength)
}

// TestLoadConfig_EnvironmentOverrides tests the VAULT_* environment variables.
func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("VAULT_SERVER_ENDPOINT", "https://env-vault:8200")
	t.Setenv("VAULT_AUTH_PATH", "env-google")
	t.Setenv("VAULT_AUTH_TOKEN", "hvs.env")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigContent), constants.DefaultFilePermissions))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://env-vault:8200", cfg.VaultAddress)
	assert.Equal(t, "env-google", cfg.VaultAuthPath)
	assert.Equal(t, "hvs.env", cfg.VaultToken)
	assert.Equal(t, "debug", cfg.LogLevel)
}

// TestValidateConfig tests the ValidateConfig function.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:     "invalid log level",
			mutate:   func(c *Config) { c.LogLevel = "verbose" },
			errorMsg: "unknown log level: 'verbose'",
		},
		{
			name:     "invalid submit target",
			mutate:   func(c *Config) { c.SubmitTarget = "submit" },
			errorMsg: "invalid submit_target: 'submit'",
		},
		{
			name:     "empty role element id",
			mutate:   func(c *Config) { c.RoleElementID = " " },
			errorMsg: "page element id cannot be empty: role_element_id",
		},
		{
			name:     "unparsable request timeout",
			mutate:   func(c *Config) { c.RequestTimeout = "soon" },
			errorMsg: "failed to parse request timeout:",
		},
		{
			name:     "zero request timeout",
			mutate:   func(c *Config) { c.RequestTimeout = "0s" },
			errorMsg: "request_timeout must be positive",
		},
		{
			name:     "negative roles cache TTL",
			mutate:   func(c *Config) { c.RolesCacheTTL = "-1s" },
			errorMsg: "roles_cache_ttl cannot be negative",
		},
		{
			name:     "zero login timeout",
			mutate:   func(c *Config) { c.LoginTimeout = "0s" },
			errorMsg: "login_timeout must be positive",
		},
		{
			name:     "invalid max log length",
			mutate:   func(c *Config) { c.MaxLogLength = "lots" },
			errorMsg: "failed to parse max log length:",
		},
		{
			name:     "negative vault retries",
			mutate:   func(c *Config) { c.VaultMaxRetries = -1 },
			errorMsg: "vault_max_retries cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
			assert.Equal(t, 30*time.Second, cfg.ParsedRequestTimeout)
			assert.Equal(t, 30*time.Second, cfg.ParsedRolesCacheTTL)
			assert.Equal(t, 10*time.Minute, cfg.ParsedLoginTimeout)
			assert.Equal(t, uint64(1000*1000), cfg.ParsedMaxLogLength)
		})
	}
}

// TestValidateConfig_NormalizesSubmitTarget tests that the target is case-insensitive.
func TestValidateConfig_NormalizesSubmitTarget(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SubmitTarget = " LOGIN "

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, SubmitTargetLogin, cfg.SubmitTarget)
}

// TestValidateServerConfig tests the ValidateServerConfig function.
func TestValidateServerConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectedErr error
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "empty vault address", mutate: func(c *Config) { c.VaultAddress = "" }, expectedErr: ErrEmptyVaultAddress},
		{name: "empty auth path", mutate: func(c *Config) { c.VaultAuthPath = "/" }, expectedErr: ErrEmptyVaultAuthPath},
		{name: "empty vault token", mutate: func(c *Config) { c.VaultToken = "  " }, expectedErr: ErrEmptyVaultToken},
		{name: "empty listen address", mutate: func(c *Config) { c.ListenAddress = "" }, expectedErr: ErrEmptyListenAddress},
		{name: "relative webflow url", mutate: func(c *Config) { c.WebflowURL = "/roles" }, expectedErr: ErrInvalidWebflowURL},
		{name: "empty webflow url", mutate: func(c *Config) { c.WebflowURL = "" }},
		{name: "shared validation runs first", mutate: func(c *Config) { c.LogLevel = "nope" }, expectedErr: ErrUnknownLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateServerConfig(cfg)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

// TestValidateServerConfig_TrimsAuthPath tests that slashes around the mount path are removed.
func TestValidateServerConfig_TrimsAuthPath(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.VaultAuthPath = "/google-acc/"

	require.NoError(t, ValidateServerConfig(cfg))
	assert.Equal(t, "google-acc", cfg.VaultAuthPath)
}

// TestValidateBrowserConfig tests the ValidateBrowserConfig function.
func TestValidateBrowserConfig(t *testing.T) {
	t.Parallel()

	for _, webflowURL := range []string{"", "localhost:29747", "ftp://example.com", "http://"} {
		cfg := validConfig()
		cfg.WebflowURL = webflowURL

		require.ErrorIs(t, ValidateBrowserConfig(cfg), ErrInvalidWebflowURL, webflowURL)
	}

	cfg := validConfig()
	require.NoError(t, ValidateBrowserConfig(cfg))
}

// TestValidateBrowserConfig_SignInDomains tests normalization of the sign-in domains.
func TestValidateBrowserConfig_SignInDomains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		domains     []string
		expected    []string
		expectedErr error
	}{
		{name: "none", domains: nil, expected: []string{}},
		{
			name:     "normalized",
			domains:  []string{"google.com", " .Okta.com ", "LOGIN.microsoftonline.com"},
			expected: []string{"google.com", "okta.com", "login.microsoftonline.com"},
		},
		{name: "empty entry", domains: []string{"google.com", " "}, expectedErr: ErrInvalidSignInDomain},
		{name: "url instead of domain", domains: []string{"https://okta.com"}, expectedErr: ErrInvalidSignInDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.SignInDomains = tt.domains

			err := ValidateBrowserConfig(cfg)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.SignInDomains)
		})
	}
}

// TestSaveConfig tests that the client token is written while the rest of the file is preserved.
func TestSaveConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigContent), constants.DefaultFilePermissions))

	cfg := &Config{ConfigFile: configPath, ClientToken: "hvs.issued"}
	require.NoError(t, SaveConfig(cfg))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	assert.Contains(t, string(content), `client_token: "hvs.issued"`)
	assert.Contains(t, string(content), "# Webflow settings.")
	assert.Contains(t, string(content), `vault_auth_path: "google-acc"`)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, constants.SecretFilePermissions, info.Mode().Perm())
}

// TestSaveConfig_AppendsMissingKey tests that the key is added when the file lacks it.
func TestSaveConfig_AppendsMissingKey(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log_level: info\n"), constants.DefaultFilePermissions))

	require.NoError(t, SaveConfig(&Config{ConfigFile: configPath, ClientToken: "hvs.new"}))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, yaml.Unmarshal(content, &values))
	assert.Equal(t, "info", values["log_level"])
	assert.Equal(t, "hvs.new", values["client_token"])
}

// TestSaveConfig_NonMappingRoot tests that a file whose root is not a mapping is left untouched.
func TestSaveConfig_NonMappingRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "sequence", content: "- log_level\n- info\n"},
		{name: "scalar", content: "client_token\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), constants.DefaultFilePermissions))

			err := SaveConfig(&Config{ConfigFile: configPath, ClientToken: "hvs.lost"})
			require.ErrorIs(t, err, ErrInvalidConfigRoot)

			content, err := os.ReadFile(configPath)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(content))
		})
	}
}

// TestSaveConfig_CreatesMissingFile tests that a missing file is created.
func TestSaveConfig_CreatesMissingFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "new.yaml")

	require.NoError(t, SaveConfig(&Config{ConfigFile: configPath, ClientToken: "hvs.fresh"}))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "hvs.fresh", cfg.ClientToken)
}
