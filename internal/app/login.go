package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oshokin/vault-webflow/internal/client/webflow"
	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/dom"
	"github.com/oshokin/vault-webflow/internal/logger"
	"github.com/oshokin/vault-webflow/internal/service/auth"
	"github.com/oshokin/vault-webflow/internal/service/clipboard"
	"github.com/oshokin/vault-webflow/internal/service/form"
)

// Static error definitions for better error handling.
var (
	// ErrUnknownRole indicates that the requested role is not offered by the roles page.
	ErrUnknownRole = errors.New("role is not offered by the roles page")
	// ErrEmptyToken indicates that the token page shows no token.
	ErrEmptyToken = errors.New("token page shows no token")
)

// LoginOptions holds the arguments of the login commands.
type LoginOptions struct {
	// PageURL is the roles page the OAuth redirect landed on, including its "code" parameter.
	PageURL string
	// Role overrides the role preselected on the roles page.
	Role string
	// Save stores the issued token in the configuration file.
	Save bool
}

// ExecuteLoginCommand completes the webflow without a browser:
// it opens the roles page, submits the login form and copies the issued token.
func ExecuteLoginCommand(ctx context.Context, cfg *config.Config, opts LoginOptions) {
	client, err := webflow.NewClient(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize page client: %v", err)
	}

	token, err := Login(ctx, cfg, client, clipboard.NewSystemWriter(), opts)
	if err != nil {
		logger.Fatalf(ctx, "Login failed: %v", err)
	}

	finishLogin(ctx, cfg, os.Stdout, token, opts.Save)
}

// ExecuteBrowserCommand opens a browser on the webflow, waits for the user to sign in
// and copies the token shown on the resulting page.
func ExecuteBrowserCommand(ctx context.Context, cfg *config.Config, save bool) {
	authService, err := auth.NewService(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize browser login: %v", err)
	}

	page, err := authService.Login(ctx)
	if err != nil {
		logger.Fatalf(ctx, "Login failed: %v", err)
	}

	token, err := CopyToken(ctx, cfg, page, clipboard.NewSystemWriter())
	if err != nil {
		logger.Fatalf(ctx, "Failed to copy token: %v", err)
	}

	finishLogin(ctx, cfg, os.Stdout, token, save)
}

// Login runs the form submitter against the roles page at opts.PageURL
// and the clipboard copy trigger against the token page it leads to.
func Login(
	ctx context.Context,
	cfg *config.Config,
	client webflow.Client,
	writer clipboard.Writer,
	opts LoginOptions,
) (string, error) {
	submitter, err := form.NewService(cfg, client)
	if err != nil {
		return "", err
	}

	return login(ctx, cfg, client, submitter, writer, opts)
}

func login(
	ctx context.Context,
	cfg *config.Config,
	client webflow.Client,
	submitter form.Service,
	writer clipboard.Writer,
	opts LoginOptions,
) (string, error) {
	page, err := client.Open(ctx, opts.PageURL)
	if err != nil {
		return "", pageFailure(page, err)
	}

	if err = webflow.PageError(page.Document); err != nil {
		return "", err
	}

	if opts.Role != "" {
		if err = selectRole(page.Document, cfg.RoleElementID, opts.Role); err != nil {
			return "", err
		}
	}

	result, err := submitter.Submit(ctx, page)
	if err != nil {
		return "", pageFailure(result, err)
	}

	if err = webflow.PageError(result.Document); err != nil {
		return "", err
	}

	return CopyToken(ctx, cfg, result, writer)
}

// CopyToken clicks the copy button of the token page and returns the copied token.
func CopyToken(ctx context.Context, cfg *config.Config, page *dom.Page, writer clipboard.Writer) (string, error) {
	trigger, err := clipboard.Bind(page.Document, cfg.CopyButtonID, cfg.TokenInputID, writer)
	if err != nil {
		return "", fmt.Errorf("failed to bind copy button: %w", err)
	}

	token := trigger.Click(ctx)
	if token == "" {
		// Without a token the page holds nothing secret, keep it for troubleshooting.
		if rendered, renderErr := page.Document.Render(); renderErr == nil {
			logger.DebugKV(ctx, "Token page shows no token", "location", page.Location, "page", rendered)
		}

		return "", ErrEmptyToken
	}

	return token, nil
}

// selectRole picks role in the role control, failing when the page does not offer it.
func selectRole(document *dom.Document, roleElementID, role string) error {
	control := document.GetElementByID(roleElementID)
	if control == nil {
		return fmt.Errorf("%w: #%s", form.ErrRoleControlNotFound, roleElementID)
	}

	if !dom.SelectOption(control, role) {
		return fmt.Errorf("%w: '%s', available: %s",
			ErrUnknownRole, role, strings.Join(dom.Options(control), ", "))
	}

	return nil
}

// pageFailure prefers the message of a webflow error page over the bare HTTP status error.
func pageFailure(page *dom.Page, err error) error {
	if page == nil || !errors.Is(err, webflow.ErrUnexpectedHTTPStatus) {
		return err
	}

	if pageErr := webflow.PageError(page.Document); pageErr != nil {
		return pageErr
	}

	return err
}

// finishLogin prints the token and optionally stores it in the configuration file.
func finishLogin(ctx context.Context, cfg *config.Config, out io.Writer, token string, save bool) {
	logger.Info(ctx, "Token copied to clipboard")

	if _, err := fmt.Fprintln(out, token); err != nil {
		logger.Errorf(ctx, "Failed to print token: %v", err)
	}

	if !save {
		return
	}

	cfg.ClientToken = token

	if err := config.SaveConfig(cfg); err != nil {
		logger.Fatalf(ctx, "Failed to save configuration: %v", err)
	}

	logger.Infof(ctx, "Token saved to %s", cfg.ConfigFile)
}
