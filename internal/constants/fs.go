package constants

import "os"

const (
	// DefaultFilePermissions sets the default permissions for regular files: (rw-r--r--).
	DefaultFilePermissions os.FileMode = 0o644

	// SecretFilePermissions sets the permissions for files holding tokens: (rw-------).
	// Owner: read and write;
	// Group and others: no access.
	SecretFilePermissions os.FileMode = 0o600
)
