// Package common holds the environment variables and default locations
// shared by the prestoimport CLI.
package common

// Environment variable names for configuration.
const (
	// DebugEnv enables [DEBUG] log output.
	DebugEnv = "PRESTOIMPORT_DEBUG"

	// ProfileEnv points at the Presto profile directory to import.
	ProfileEnv = "PRESTOIMPORT_PROFILE"

	// KeyringServiceEnv overrides the keyring service name.
	KeyringServiceEnv = "PRESTOIMPORT_KEYRING_SERVICE"

	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "PRESTOIMPORT_CONFIG_DIR"
)
