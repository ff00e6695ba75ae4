package profile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Kind identifies a Presto container file.
type Kind int

const (
	// KindUnknown means the file is not a recognised container.
	KindUnknown Kind = iota
	// KindCookies is cookies4.dat.
	KindCookies
	// KindWand is wand.dat.
	KindWand
	// KindVisited is vlink4.dat.
	KindVisited
	// KindCheckFile is the security file holding the master password check
	// code (opcert6.dat).
	KindCheckFile
)

func (k Kind) String() string {
	switch k {
	case KindCookies:
		return "cookies"
	case KindWand:
		return "wand"
	case KindVisited:
		return "visited"
	case KindCheckFile:
		return "checkfile"
	}
	return "unknown"
}

// ErrUnknownKind means neither the name nor the content identifies the file.
var ErrUnknownKind = errors.New("profile: unrecognised container file")

// FileNames maps the well-known container file names to their kind.
var FileNames = map[string]Kind{
	"cookies4.dat": KindCookies,
	"wand.dat":     KindWand,
	"vlink4.dat":   KindVisited,
	"opcert6.dat":  KindCheckFile,
}

// KindOf classifies a path by its base name only.
func KindOf(p string) Kind {
	return FileNames[strings.ToLower(path.Base(strings.ReplaceAll(p, "\\", "/")))]
}

// maxWandVersion bounds the version numbers Presto ever wrote to wand.dat.
const maxWandVersion = 6

// Detect classifies the file at p. A well-known name wins; otherwise the
// first bytes decide. Tag streams are told apart by their first tag.
func Detect(fs afero.Fs, p string) (Kind, error) {
	info, err := fs.Stat(p)
	if err != nil {
		return KindUnknown, fmt.Errorf("error: container file not found: %s", p)
	}
	if info.IsDir() {
		return KindUnknown, fmt.Errorf("error: %s is a directory, expected a container file", p)
	}
	if info.Size() == 0 {
		return KindUnknown, fmt.Errorf("error: container file at %s is empty or corrupted", p)
	}
	if k := KindOf(p); k != KindUnknown {
		return k, nil
	}

	f, err := fs.Open(p)
	if err != nil {
		return KindUnknown, fmt.Errorf("error: cannot open container file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 16)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return KindUnknown, fmt.Errorf("error: cannot read container file: %w", err)
	}
	if k := sniff(head[:n]); k != KindUnknown {
		return k, nil
	}
	return KindUnknown, fmt.Errorf("%w: %s", ErrUnknownKind, p)
}

func sniff(head []byte) Kind {
	if len(head) < 4 {
		return KindUnknown
	}
	if len(head) >= 13 {
		tw := binary.BigEndian.Uint16(head[8:10])
		lw := binary.BigEndian.Uint16(head[10:12])
		if tw == 1 && (lw == 1 || lw == 2 || lw == 4) {
			switch head[12] {
			case 0x01, 0x84:
				return KindCookies
			case 0x02:
				return KindVisited
			case 0x28:
				return KindCheckFile
			}
		}
	}
	if v := binary.BigEndian.Uint32(head); v >= 1 && v <= maxWandVersion {
		return KindWand
	}
	return KindUnknown
}
