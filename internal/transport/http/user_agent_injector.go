package http

import (
	"net/http"
	"runtime"

	"github.com/oshokin/vault-webflow/internal/utils"
	"github.com/oshokin/vault-webflow/internal/version"
)

// UserAgentInjector is a custom http.RoundTripper that sets the User-Agent header
// on requests that do not carry one.
type UserAgentInjector struct {
	next              http.RoundTripper
	userAgentProvider utils.UserAgentProvider
}

// userAgentHeader is the HTTP header name for User-Agent.
const userAgentHeader = "User-Agent"

// NewUserAgentInjector wraps next so that every request carries a User-Agent.
func NewUserAgentInjector(next http.RoundTripper, userAgentProvider utils.UserAgentProvider) http.RoundTripper {
	return &UserAgentInjector{
		next:              next,
		userAgentProvider: userAgentProvider,
	}
}

// RoundTrip injects the User-Agent header if it is missing and forwards the request.
// The caller's request is cloned, a RoundTripper must not modify it.
func (t *UserAgentInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(userAgentHeader) != "" {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(userAgentHeader, t.userAgentProvider.GetUserAgent())

	return t.next.RoundTrip(clone)
}

// NewDefaultTransport builds the transport chain shared by all outbound clients:
// User-Agent injection on top of debug logging on top of base.
func NewDefaultTransport(base http.RoundTripper, userAgent string, maxLogLength uint64) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return NewUserAgentInjector(
		NewLogTransport(base, maxLogLength),
		utils.NewSimpleUserAgentProvider(userAgent))
}

// DefaultUserAgent returns the User-Agent of outbound requests, e.g. "vault-webflow/0.1.0 (linux/amd64)".
func DefaultUserAgent() string {
	return utils.NewProductUserAgentProvider(
		DefaultProduct,
		version.Short(),
		runtime.GOOS+"/"+runtime.GOARCH).GetUserAgent()
}
