package webflow

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/oshokin/vault-webflow/internal/config"
	"github.com/oshokin/vault-webflow/internal/dom"
	"github.com/oshokin/vault-webflow/internal/logger"
	http_transport "github.com/oshokin/vault-webflow/internal/transport/http"
)

// Client loads pages and submits forms the way a browser does.
type Client interface {
	// Open loads the page at pageURL.
	Open(ctx context.Context, pageURL string) (*dom.Page, error)
	// Submit submits form, which belongs to page, and returns the page navigated to.
	Submit(ctx context.Context, page *dom.Page, form *html.Node) (*dom.Page, error)
}

// ClientImpl implements Client on top of net/http.
type ClientImpl struct {
	// httpClient follows redirects and keeps cookies between requests.
	httpClient *http.Client
}

const (
	// maxPageSize caps the size of a page body that is parsed.
	maxPageSize = 10 * 1024 * 1024

	// formContentType is the encoding of submitted forms.
	formContentType = "application/x-www-form-urlencoded"
)

// Static error definitions for better error handling.
var (
	// ErrUnexpectedHTTPStatus indicates a non-2xx response. The page is still returned along with it.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrNilPage indicates that Submit was called without a page or form.
	ErrNilPage = errors.New("page and form are required")
)

// NewClient creates a page client with a cookie jar and the shared transport chain.
func NewClient(cfg *config.Config) (Client, error) {
	return newClient(cfg, http.DefaultTransport)
}

func newClient(cfg *config.Config, base http.RoundTripper) (*ClientImpl, error) {
	cookies, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := cfg.ParsedRequestTimeout
	if timeout <= 0 {
		timeout = http_transport.DefaultTimeout
	}

	httpClient := &http.Client{
		Transport: http_transport.NewDefaultTransport(
			base,
			http_transport.DefaultUserAgent(),
			cfg.ParsedMaxLogLength),
		Jar:     cookies,
		Timeout: timeout,
	}

	return &ClientImpl{httpClient: httpClient}, nil
}

// Open loads the page at pageURL.
func (c *ClientImpl) Open(ctx context.Context, pageURL string) (*dom.Page, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.navigate(ctx, request)
}

// Submit serializes the named controls of form and sends them to the form action,
// resolved against the page location. No client-side validation is performed.
func (c *ClientImpl) Submit(ctx context.Context, page *dom.Page, form *html.Node) (*dom.Page, error) {
	if page == nil || form == nil {
		return nil, ErrNilPage
	}

	action, err := dom.FormAction(form, page.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve form action: %w", err)
	}

	var (
		method = dom.FormMethod(form)
		values = dom.FormValues(form)
		body   io.Reader
	)

	if method == http.MethodGet {
		target, parseErr := url.Parse(action)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse form action: %w", parseErr)
		}

		target.RawQuery = values.Encode()
		action = target.String()
		body = http.NoBody
	} else {
		body = strings.NewReader(values.Encode())
	}

	request, err := http.NewRequestWithContext(ctx, method, action, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if method != http.MethodGet {
		request.Header.Set("Content-Type", formContentType)
	}

	request.Header.Set("Referer", page.Location)

	logger.Debugf(ctx, "Submitting form: %s %s", method, action)

	return c.navigate(ctx, request)
}

// navigate sends the request and parses the response into the page navigated to.
func (c *ClientImpl) navigate(ctx context.Context, request *http.Request) (*dom.Page, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	document, err := dom.Parse(io.LimitReader(response.Body, maxPageSize))
	if err != nil {
		return nil, err
	}

	// After redirects the location is the one of the last request.
	page := &dom.Page{
		Location: response.Request.URL.String(),
		Document: document,
	}

	logger.Debugf(ctx, "Navigated to %s (%d)", page.Location, response.StatusCode)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return page, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	return page, nil
}
