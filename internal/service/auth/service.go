package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/dom"
	"github.com/oshokin/vault-webflow/internal/logger"
)

const (
	// browserSlowMotionDelay is the delay between browser actions for visibility during debugging.
	browserSlowMotionDelay = 200 * time.Millisecond

	// loginPollInterval is the interval for polling the login status.
	loginPollInterval = 1 * time.Second

	// browserCleanupDelay is the delay to wait for Chrome to release file locks before cleanup.
	browserCleanupDelay = 500 * time.Millisecond
)

var (
	// ErrLoginTimeout is returned when login takes too long.
	ErrLoginTimeout = errors.New("login timeout exceeded")

	// ErrBrowserClosed is returned when the browser is closed by the user.
	ErrBrowserClosed = errors.New("browser was closed by user")

	// ErrNavigatedAway is returned when the user navigates away from the login flow.
	ErrNavigatedAway = errors.New("user navigated away from login flow")

	// ErrNotOnWebflow is returned for pages outside the webflow, e.g. the Google sign-in.
	ErrNotOnWebflow = errors.New("page is not on the webflow")
)

// Service provides browser-based login through the webflow.
type Service interface {
	// Login opens a browser, waits for the token page and returns its snapshot.
	Login(ctx context.Context) (*dom.Page, error)
}

// ServiceImpl provides browser-based login through the webflow.
type ServiceImpl struct {
	cfg     *config.Config
	browser *rod.Browser
	page    *rod.Page
	// webflowHost is the host of the webflow URL.
	webflowHost string
	// signInDomains are the other domains the sign-in may pass through.
	signInDomains []string
	// tempDir stores the temporary profile directory for cleanup.
	tempDir string
}

// NewService creates a new browser login service from the validated browser configuration.
func NewService(cfg *config.Config) (*ServiceImpl, error) {
	webflowURL, err := url.Parse(cfg.WebflowURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webflow URL: %w", err)
	}

	return &ServiceImpl{
		cfg:           cfg,
		webflowHost:   strings.ToLower(webflowURL.Hostname()),
		signInDomains: cfg.SignInDomains,
	}, nil
}

// Login opens a browser, waits for the token page and returns its snapshot.
func (s *ServiceImpl) Login(ctx context.Context) (*dom.Page, error) {
	logger.Info(ctx, "Starting browser-based login")

	if err := s.initBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	defer s.cleanup(ctx)

	page, err := s.waitForUserLogin(ctx)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	logger.Info(ctx, "Token page captured successfully")

	return page, nil
}

// validateLoginURL validates that the user hasn't navigated away from the webflow and the sign-in domains.
func (s *ServiceImpl) validateLoginURL(currentURL string) error {
	parsed, err := url.Parse(currentURL)
	if err != nil {
		return fmt.Errorf("%w to: %s", ErrNavigatedAway, currentURL)
	}

	// The tab starts blank and may briefly show it again between navigations.
	if parsed.Scheme == "about" {
		return nil
	}

	host := strings.ToLower(parsed.Hostname())
	if host == s.webflowHost {
		return nil
	}

	for _, domain := range s.signInDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return nil
		}
	}

	return fmt.Errorf("%w to: %s", ErrNavigatedAway, currentURL)
}

// validateWebflowURL checks that the URL belongs to the webflow itself.
func (s *ServiceImpl) validateWebflowURL(currentURL string) error {
	parsed, err := url.Parse(currentURL)
	if err != nil || strings.ToLower(parsed.Hostname()) != s.webflowHost {
		return fmt.Errorf("%w: %s", ErrNotOnWebflow, currentURL)
	}

	return nil
}

// snapshot parses the HTML of the current page into a document.
func snapshot(location, pageHTML string) (*dom.Page, error) {
	document, err := dom.ParseString(pageHTML)
	if err != nil {
		return nil, err
	}

	return &dom.Page{Location: location, Document: document}, nil
}
