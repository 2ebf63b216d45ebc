package vault

import "time"

// LoginResult is the token issued by the auth plugin.
type LoginResult struct {
	// ClientToken is the issued Vault token.
	ClientToken string
	// Accessor is the accessor of the issued token.
	Accessor string
	// Policies are the policies attached to the token.
	Policies []string
	// Metadata holds the account details recorded by the plugin, e.g. "username" and "domain".
	Metadata map[string]string
	// LeaseDuration is the token TTL.
	LeaseDuration time.Duration
	// Renewable indicates whether the token can be renewed.
	Renewable bool
}
