//go:build windows

package profile

import (
	"path/filepath"
	"testing"
)

func TestDirsForFolders(t *testing.T) {
	roaming := `C:\Users\user\AppData\Roaming`
	local := `C:\Users\user\AppData\Local`

	dirs := dirsForFolders(roaming, local)
	if len(dirs) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(dirs))
	}
	if want := filepath.Join(roaming, "Opera", "Opera"); dirs[0].Dir != want {
		t.Errorf("primary location: want %q, got %q", want, dirs[0].Dir)
	}
	if want := filepath.Join(local, "Opera", "Opera"); dirs[3].Dir != want {
		t.Errorf("local location: want %q, got %q", want, dirs[3].Dir)
	}
	if got := dirsForFolders("", ""); len(got) != 0 {
		t.Errorf("expected no candidates without folders, got %d", len(got))
	}
}
