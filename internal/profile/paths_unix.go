//go:build unix

package profile

import (
	"os"
	"path/filepath"
	"runtime"
)

// dirsForHome returns the candidate profile directories below homeDir.
// This is the testable variant; candidateDirs calls it with the real home.
func dirsForHome(homeDir string) []Location {
	if runtime.GOOS == "darwin" {
		return []Location{
			{Name: "Opera", Dir: filepath.Join(homeDir, "Library", "Opera")},
			{Name: "Opera", Dir: filepath.Join(homeDir, "Library", "Application Support", "Opera")},
			{Name: "Opera Next", Dir: filepath.Join(homeDir, "Library", "Opera Next")},
		}
	}
	return []Location{
		{Name: "Opera", Dir: filepath.Join(homeDir, ".opera")},
		{Name: "Opera Next", Dir: filepath.Join(homeDir, ".opera-next")},
	}
}

func candidateDirs() []Location {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return dirsForHome(homeDir)
}
