package common

import (
	"os"
	"path/filepath"
)

const (
	// AppName names the config directory and the keyring service.
	AppName = "prestoimport"

	// DefaultDBName is the staging database file name.
	DefaultDBName = "staging.db"

	// SealKeyUser is the keyring entry holding the staging database key.
	SealKeyUser = "staging-key"

	// MasterPasswordUser is the keyring entry holding a remembered Presto
	// master password.
	MasterPasswordUser = "master-password"
)

var userConfigDir = os.UserConfigDir

// ConfigDir returns the directory for prestoimport's own files. ConfigDirEnv
// wins; otherwise it is AppName below the user config directory, or below
// the working directory when there is none.
func ConfigDir() string {
	if d := os.Getenv(ConfigDirEnv); d != "" {
		return d
	}
	base, err := userConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, AppName)
}

// DefaultDBPath is the staging database location inside ConfigDir.
func DefaultDBPath() string {
	return filepath.Join(ConfigDir(), DefaultDBName)
}
