//go:build windows

package profile

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

// dirsForFolders returns the candidate profile directories below the roaming
// and local application data folders. This is the testable variant.
func dirsForFolders(roaming, local string) []Location {
	var out []Location
	if roaming != "" {
		out = append(out,
			Location{Name: "Opera", Dir: filepath.Join(roaming, "Opera", "Opera")},
			Location{Name: "Opera", Dir: filepath.Join(roaming, "Opera", "Opera", "profile")},
			Location{Name: "Opera Next", Dir: filepath.Join(roaming, "Opera", "Opera Next")},
		)
	}
	if local != "" {
		out = append(out, Location{Name: "Opera", Dir: filepath.Join(local, "Opera", "Opera")})
	}
	return out
}

func candidateDirs() []Location {
	roaming, _ := windows.KnownFolderPath(windows.FOLDERID_RoamingAppData, 0)
	local, _ := windows.KnownFolderPath(windows.FOLDERID_LocalAppData, 0)
	return dirsForFolders(roaming, local)
}
