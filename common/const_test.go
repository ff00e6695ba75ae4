package common

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestConfigDir(t *testing.T) {
	orig := userConfigDir
	defer func() { userConfigDir = orig }()

	t.Setenv(ConfigDirEnv, "")
	userConfigDir = func() (string, error) { return "/home/u/.config", nil }
	if got, want := ConfigDir(), filepath.Join("/home/u/.config", AppName); got != want {
		t.Fatalf("ConfigDir() = %q, want %q", got, want)
	}
	if got, want := DefaultDBPath(), filepath.Join("/home/u/.config", AppName, DefaultDBName); got != want {
		t.Fatalf("DefaultDBPath() = %q, want %q", got, want)
	}

	userConfigDir = func() (string, error) { return "", errors.New("no home") }
	if got, want := ConfigDir(), filepath.Join(".", AppName); got != want {
		t.Fatalf("fallback ConfigDir() = %q, want %q", got, want)
	}

	t.Setenv(ConfigDirEnv, "/custom")
	if got := ConfigDir(); got != "/custom" {
		t.Fatalf("env override ignored, got %q", got)
	}
}
