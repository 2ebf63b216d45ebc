package utils

//go:generate $MOCKGEN -source=user_agent_provider.go -destination=mocks/user_agent_provider_mock.go

import "fmt"

// UserAgentProvider supplies the User-Agent header value for outgoing requests.
type UserAgentProvider interface {
	// GetUserAgent returns a User-Agent string.
	GetUserAgent() string
}

// SimpleUserAgentProvider always returns the User-Agent it was created with.
type SimpleUserAgentProvider struct {
	userAgent string
}

// NewSimpleUserAgentProvider creates a provider with a fixed User-Agent.
func NewSimpleUserAgentProvider(userAgent string) UserAgentProvider {
	return &SimpleUserAgentProvider{userAgent: userAgent}
}

// NewProductUserAgentProvider creates a provider returning "product/version (comment)".
// The comment is omitted when empty.
func NewProductUserAgentProvider(product, version, comment string) UserAgentProvider {
	userAgent := fmt.Sprintf("%s/%s", product, version)
	if comment != "" {
		userAgent += " (" + comment + ")"
	}

	return &SimpleUserAgentProvider{userAgent: userAgent}
}

// GetUserAgent returns a User-Agent string.
func (p *SimpleUserAgentProvider) GetUserAgent() string {
	return p.userAgent
}
