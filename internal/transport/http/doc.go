// Package http provides custom HTTP transport utilities:
// request/response debug logging with secret redaction and User-Agent header injection.
// Every outbound client in the application (Vault API, webflow pages) is built on them.
package http
