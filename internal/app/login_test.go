package app

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/vault-webflow/internal/client/vault"
	mock_vault "github.com/oshokin/vault-webflow/internal/client/vault/mocks"
	"github.com/oshokin/vault-webflow/internal/client/webflow"
	mock_webflow "github.com/oshokin/vault-webflow/internal/client/webflow/mocks"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/dom"
	"github.com/oshokin/vault-webflow/internal/logger"
	"github.com/oshokin/vault-webflow/internal/server"
	mock_clipboard "github.com/oshokin/vault-webflow/internal/service/clipboard/mocks"
	"github.com/oshokin/vault-webflow/internal/service/form"
	mock_form "github.com/oshokin/vault-webflow/internal/service/form/mocks"
)

func testConfig(target string) *config.Config {
	return &config.Config{
		SubmitTarget:         target,
		DecodeCode:           true,
		RoleElementID:        "role-list",
		CopyButtonID:         "copy-btn",
		TokenInputID:         "token-txtbox",
		ParsedRequestTimeout: 5 * time.Second,
		ParsedMaxLogLength:   config.DefaultMaxLogLength,
	}
}

// startWebflow runs the webflow server against a mocked Vault.
func startWebflow(t *testing.T, cfg *config.Config) (*httptest.Server, *mock_vault.MockClient) {
	t.Helper()

	ctrl := gomock.NewController(t)
	vaultClient := mock_vault.NewMockClient(ctrl)

	srv, err := server.New(cfg, vaultClient)
	require.NoError(t, err)

	webflowServer := httptest.NewServer(srv.Handler())
	t.Cleanup(webflowServer.Close)

	return webflowServer, vaultClient
}

func newPageClient(t *testing.T, cfg *config.Config) webflow.Client {
	t.Helper()

	client, err := webflow.NewClient(cfg)
	require.NoError(t, err)

	return client
}

// TestLogin tests the whole headless flow against the webflow server.
func TestLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		target       string
		role         string
		expectedRole string
	}{
		{name: "write target with preselected role", target: config.SubmitTargetWrite, expectedRole: "admin"},
		{name: "login target with preselected role", target: config.SubmitTargetLogin, expectedRole: "admin"},
		{name: "role override", target: config.SubmitTargetWrite, role: "viewer", expectedRole: "viewer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(tt.target)
			webflowServer, vaultClient := startWebflow(t, cfg)

			vaultClient.EXPECT().ListRoles(gomock.Any()).Return([]string{"admin", "viewer"}, nil)
			vaultClient.EXPECT().Login(gomock.Any(), "4/0Ab cd", tt.expectedRole).Return(&vault.LoginResult{
				ClientToken:   "hvs.issued",
				Policies:      []string{"default"},
				LeaseDuration: time.Hour,
			}, nil)

			writer := mock_clipboard.NewMockWriter(gomock.NewController(t))
			writer.EXPECT().WriteAll("hvs.issued").Return(nil)

			token, err := Login(context.Background(), cfg, newPageClient(t, cfg), writer, LoginOptions{
				PageURL: webflowServer.URL + "/roles?code=4%2F0Ab%20cd&scope=email",
				Role:    tt.role,
			})
			require.NoError(t, err)
			assert.Equal(t, "hvs.issued", token)
		})
	}
}

// TestLogin_Errors tests that webflow error pages and lookup failures are reported.
func TestLogin_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		role          string
		setup         func(vaultClient *mock_vault.MockClient)
		expectedErr   error
		expectedInErr string
	}{
		{
			name: "roles page error",
			setup: func(vaultClient *mock_vault.MockClient) {
				vaultClient.EXPECT().ListRoles(gomock.Any()).Return(nil, vault.ErrConnection)
			},
			expectedErr:   webflow.ErrErrorPage,
			expectedInErr: "A004",
		},
		{
			name: "role not authorized",
			setup: func(vaultClient *mock_vault.MockClient) {
				vaultClient.EXPECT().ListRoles(gomock.Any()).Return([]string{"admin"}, nil)
				vaultClient.EXPECT().Login(gomock.Any(), gomock.Any(), "admin").Return(nil, vault.ErrInvalidRequest)
			},
			expectedErr:   webflow.ErrErrorPage,
			expectedInErr: "A006",
		},
		{
			name: "unknown role",
			role: "owner",
			setup: func(vaultClient *mock_vault.MockClient) {
				vaultClient.EXPECT().ListRoles(gomock.Any()).Return([]string{"admin", "viewer"}, nil)
			},
			expectedErr:   ErrUnknownRole,
			expectedInErr: "admin, viewer",
		},
		{
			name: "token page without token",
			setup: func(vaultClient *mock_vault.MockClient) {
				vaultClient.EXPECT().ListRoles(gomock.Any()).Return([]string{"admin"}, nil)
				vaultClient.EXPECT().Login(gomock.Any(), gomock.Any(), "admin").Return(&vault.LoginResult{}, nil)
			},
			expectedErr: ErrEmptyToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(config.SubmitTargetWrite)
			webflowServer, vaultClient := startWebflow(t, cfg)
			tt.setup(vaultClient)

			writer := mock_clipboard.NewMockWriter(gomock.NewController(t))
			writer.EXPECT().WriteAll(gomock.Any()).Return(nil).AnyTimes()

			_, err := Login(context.Background(), cfg, newPageClient(t, cfg), writer, LoginOptions{
				PageURL: webflowServer.URL + "/roles?code=abc",
				Role:    tt.role,
			})
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedInErr != "" {
				assert.Contains(t, err.Error(), tt.expectedInErr)
			}
		})
	}
}

// TestLogin_ClipboardFailure tests that the token is still returned when the clipboard is unavailable.
func TestLogin_ClipboardFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.SubmitTargetWrite)
	webflowServer, vaultClient := startWebflow(t, cfg)

	vaultClient.EXPECT().ListRoles(gomock.Any()).Return([]string{"admin"}, nil)
	vaultClient.EXPECT().Login(gomock.Any(), "undefined", "admin").
		Return(&vault.LoginResult{ClientToken: "hvs.issued"}, nil)

	writer := mock_clipboard.NewMockWriter(gomock.NewController(t))
	writer.EXPECT().WriteAll("hvs.issued").Return(errors.New("no clipboard"))

	token, err := Login(context.Background(), cfg, newPageClient(t, cfg), writer, LoginOptions{
		PageURL: webflowServer.URL + "/roles",
	})
	require.NoError(t, err)
	assert.Equal(t, "hvs.issued", token)
}

// TestLogin_SubmitFailures tests how submission failures are reported.
func TestLogin_SubmitFailures(t *testing.T) {
	t.Parallel()

	errNetwork := errors.New("connection reset")

	tests := []struct {
		name        string
		result      string
		err         error
		expectedErr error
	}{
		{name: "network failure is returned as is", err: errNetwork, expectedErr: errNetwork},
		{
			name:        "error page wins over the status error",
			result:      `<html><body><h1 id="error-message">Unreachable server</h1><span id="error-code">A004</span></body></html>`,
			err:         webflow.ErrUnexpectedHTTPStatus,
			expectedErr: webflow.ErrErrorPage,
		},
		{
			name:        "status error without error page",
			result:      `<html><body>Bad Gateway</body></html>`,
			err:         webflow.ErrUnexpectedHTTPStatus,
			expectedErr: webflow.ErrUnexpectedHTTPStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := mock_webflow.NewMockClient(ctrl)
			submitter := mock_form.NewMockService(ctrl)
			writer := mock_clipboard.NewMockWriter(ctrl)

			rolesDocument, err := dom.ParseString(`<html><body><select id="role-list"><option>admin</option></select></body></html>`)
			require.NoError(t, err)

			rolesPage := &dom.Page{Location: "https://webflow.example.com/roles?code=abc", Document: rolesDocument}

			var result *dom.Page

			if tt.result != "" {
				resultDocument, parseErr := dom.ParseString(tt.result)
				require.NoError(t, parseErr)

				result = &dom.Page{Location: "https://webflow.example.com/write", Document: resultDocument}
			}

			client.EXPECT().Open(gomock.Any(), rolesPage.Location).Return(rolesPage, nil)
			submitter.EXPECT().Submit(gomock.Any(), rolesPage).Return(result, tt.err)

			_, err = login(context.Background(), testConfig(config.SubmitTargetWrite), client, submitter, writer,
				LoginOptions{PageURL: rolesPage.Location})
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

// TestCopyToken_MissingElements tests a token page without the copy button.
func TestCopyToken_MissingElements(t *testing.T) {
	t.Parallel()

	document, err := dom.ParseString(`<html><body><input id="token-txtbox" value="hvs.issued"></body></html>`)
	require.NoError(t, err)

	writer := mock_clipboard.NewMockWriter(gomock.NewController(t))

	_, err = CopyToken(context.Background(), testConfig(config.SubmitTargetWrite),
		&dom.Page{Location: "http://localhost/write", Document: document}, writer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#copy-btn")
}

// TestCopyToken_EmptyToken tests that a token page with an empty input is rejected and logged.
func TestCopyToken_EmptyToken(t *testing.T) {
	t.Parallel()

	document, err := dom.ParseString(
		`<html><body><input id="token-txtbox" value=""><button id="copy-btn">Copy</button></body></html>`)
	require.NoError(t, err)

	writer := mock_clipboard.NewMockWriter(gomock.NewController(t))
	writer.EXPECT().WriteAll("").Return(nil)

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	_, err = CopyToken(ctx, testConfig(config.SubmitTargetWrite),
		&dom.Page{Location: "http://localhost/write", Document: document}, writer)
	require.ErrorIs(t, err, ErrEmptyToken)

	entries := logs.FilterMessage("Token page shows no token").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "http://localhost/write", entries[0].ContextMap()["location"])
	assert.Contains(t, entries[0].ContextMap()["page"], `id="copy-btn"`)
}

// TestSelectRole_MissingControl tests a roles page without the role control.
func TestSelectRole_MissingControl(t *testing.T) {
	t.Parallel()

	err := selectRole(dom.NewDocument(), "role-list", "admin")
	require.ErrorIs(t, err, form.ErrRoleControlNotFound)
}

// TestFinishLogin tests printing and saving the token.
func TestFinishLogin(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log_level: info\n"), 0o600))

	cfg := testConfig(config.SubmitTargetWrite)
	cfg.ConfigFile = configPath

	var out bytes.Buffer
	finishLogin(context.Background(), cfg, &out, "hvs.issued", true)

	assert.Equal(t, "hvs.issued\n", out.String())
	assert.Equal(t, "hvs.issued", cfg.ClientToken)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `client_token: "hvs.issued"`)
	assert.Contains(t, string(content), "log_level: info")
}
