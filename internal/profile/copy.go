package profile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// SafeCopy copies container files into a fresh temporary directory so a
// running browser cannot rewrite them while they are decoded. Files keep
// their base names.
//
// Returns the temporary directory path, a cleanup function that removes it,
// and an error. The caller MUST call cleanup when done.
func SafeCopy(fs afero.Fs, srcPaths ...string) (tempDir string, cleanup func(), err error) {
	for _, p := range srcPaths {
		info, err := fs.Stat(p)
		if err != nil {
			return "", nil, fmt.Errorf("error: container file not found: %s", p)
		}
		if info.IsDir() {
			return "", nil, fmt.Errorf("error: %s is a directory, expected a container file", p)
		}
	}

	tempDir, err = afero.TempDir(fs, "", "prestoimport-")
	if err != nil {
		return "", nil, fmt.Errorf("error: cannot create temp directory: %w", err)
	}
	cleanup = func() {
		fs.RemoveAll(tempDir)
	}

	for _, p := range srcPaths {
		if err := copyFile(fs, p, filepath.Join(tempDir, filepath.Base(p))); err != nil {
			cleanup()
			return "", nil, err
		}
	}
	return tempDir, cleanup, nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("error: cannot open source file %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("error: cannot create destination file %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("error: cannot copy file: %w", err)
	}
	return nil
}
