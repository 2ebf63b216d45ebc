// Package vault provides the client of the Google account auth plugin mounted in Vault.
//
// The plugin exposes three endpoints under auth/<mount>: code_url returns the Google OAuth
// consent URL, role lists the configured roles and login exchanges an OAuth code for a token.
package vault
