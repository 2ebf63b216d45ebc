// Package utils provides small helpers shared across the application:
// URL and query-string parsing, content type checks, and the User-Agent provider
// used by the HTTP transports.
package utils
