package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/vault-webflow/internal/client/webflow"
	"github.com/oshokin/vault-webflow/internal/dom"
	"github.com/oshokin/vault-webflow/internal/logger"
)

// waitForUserLogin opens the webflow and waits until the token page is shown.
func (s *ServiceImpl) waitForUserLogin(ctx context.Context) (*dom.Page, error) {
	logger.Infof(ctx, "Opening %s", s.cfg.WebflowURL)

	if err := s.page.Context(ctx).Navigate(s.cfg.WebflowURL); err != nil {
		return nil, fmt.Errorf("failed to open webflow: %w", err)
	}

	logger.Info(ctx, "")
	logger.Info(ctx, "Please complete the login in the browser:")
	logger.Info(ctx, "1. Sign in with your Google account")
	logger.Info(ctx, "2. Select a Vault role and press 'Log in'")
	logger.Info(ctx, "3. Leave the browser open, it closes once the token page is shown")
	logger.Info(ctx, "")

	page, err := s.waitForTokenPage(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Login completed successfully!")

	return page, nil
}

// waitForTokenPage polls the browser until the token input appears.
//
//nolint:cyclop // The polling loop checks several exit conditions in turn.
func (s *ServiceImpl) waitForTokenPage(ctx context.Context) (*dom.Page, error) {
	var (
		startTime     = time.Now()
		lastURL       string
		tokenSelector = "#" + s.cfg.TokenInputID
		spinner       *progressbar.ProgressBar
	)

	if logger.Level() == zap.InfoLevel {
		spinner = progressbar.Default(-1, "Waiting for login")

		defer spinner.Finish() //nolint:errcheck // Spinner output is best-effort.
	}

	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()

	for {
		if time.Since(startTime) > s.cfg.ParsedLoginTimeout {
			return nil, fmt.Errorf("%w: waited for %v", ErrLoginTimeout, s.cfg.ParsedLoginTimeout)
		}

		if !s.isBrowserAlive(ctx) {
			return nil, ErrBrowserClosed
		}

		currentURL, err := s.getCurrentURL(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get current URL: %w", err)
		}

		if currentURL != lastURL {
			s.logURLChange(ctx, currentURL)
			lastURL = currentURL
		}

		if err = s.validateLoginURL(currentURL); err != nil {
			return nil, err
		}

		page, err := s.capturePage(ctx, currentURL, tokenSelector)
		if page != nil || err != nil {
			return page, err
		}

		if spinner != nil {
			_ = spinner.Add(1)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// capturePage snapshots the current page when it is the token page or a webflow error page.
// It returns nil and no error while the login is still in progress.
func (s *ServiceImpl) capturePage(ctx context.Context, currentURL, tokenSelector string) (*dom.Page, error) {
	if s.validateWebflowURL(currentURL) != nil {
		return nil, nil //nolint:nilnil // Still on the Google sign-in pages.
	}

	hasToken, _, err := s.page.Has(tokenSelector)
	if err != nil {
		logger.Debugf(ctx, "Token input lookup failed: %v", err)

		return nil, nil //nolint:nilnil // The page may be navigating, retry on the next tick.
	}

	hasError, _, err := s.page.Has("#" + webflow.ErrorCodeElementID)
	if err != nil || (!hasToken && !hasError) {
		return nil, nil //nolint:nilnil // Not a final page yet.
	}

	pageHTML, err := s.page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}

	page, err := snapshot(currentURL, pageHTML)
	if err != nil {
		return nil, err
	}

	if err = webflow.PageError(page.Document); err != nil {
		return nil, err
	}

	return page, nil
}

// logURLChange logs URL changes and the page title in debug mode.
func (s *ServiceImpl) logURLChange(ctx context.Context, currentURL string) {
	logger.Debugf(ctx, "URL changed: %s", currentURL)

	if !logger.IsDebugLevel() {
		return
	}

	if pageInfo, err := s.page.Info(); err == nil {
		logger.Debugf(ctx, "Page title: %s", pageInfo.Title)
	}
}
