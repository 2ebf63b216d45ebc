package http

import "time"

const (
	// DefaultTimeout is the default timeout duration for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultProduct is the product token used in the User-Agent header.
	DefaultProduct = "vault-webflow"

	// redactedValue replaces secrets in logged request and response dumps.
	redactedValue = "[redacted]"
)
