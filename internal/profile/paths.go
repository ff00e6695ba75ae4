package profile

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Location is a candidate Presto profile directory.
type Location struct {
	// Name is a human-readable label (e.g., "Opera").
	Name string
	Dir  string
}

// Container is a container file found inside a profile.
type Container struct {
	Path string
	Kind Kind
}

// containerGlob matches every container at any depth below a profile
// directory; mail and widget subdirectories carry their own copies.
const containerGlob = "**/{cookies4,vlink4,wand,opcert6}.dat"

// DefaultDirs returns the known profile locations for this OS that exist on
// fs, in priority order.
func DefaultDirs(fs afero.Fs) []Location {
	return existing(fs, candidateDirs())
}

func existing(fs afero.Fs, cands []Location) []Location {
	var out []Location
	for _, l := range cands {
		if ok, _ := afero.DirExists(fs, l.Dir); ok {
			out = append(out, l)
		}
	}
	return out
}

// Scan lists the containers below dir. Results are sorted by path so the
// check file, wand and the rest are always visited in the same order.
func Scan(fs afero.Fs, dir string) ([]Container, error) {
	if ok, _ := afero.DirExists(fs, dir); !ok {
		return nil, fmt.Errorf("error: profile directory not found: %s", dir)
	}
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, dir)), containerGlob)
	if err != nil {
		return nil, fmt.Errorf("error: scanning %s: %w", dir, err)
	}
	sort.Strings(matches)
	out := make([]Container, 0, len(matches))
	for _, m := range matches {
		out = append(out, Container{
			Path: filepath.Join(dir, filepath.FromSlash(m)),
			Kind: KindOf(m),
		})
	}
	return out, nil
}

// Discover scans every default location and returns the first one holding
// at least one container.
func Discover(fs afero.Fs) (Location, []Container, error) {
	return discoverIn(fs, candidateDirs())
}

func discoverIn(fs afero.Fs, cands []Location) (Location, []Container, error) {
	for _, l := range existing(fs, cands) {
		found, err := Scan(fs, l.Dir)
		if err != nil || len(found) == 0 {
			continue
		}
		return l, found, nil
	}
	return Location{}, nil, fmt.Errorf("no Presto profile found (tried %d locations)", len(cands))
}
