// Package importer drives a one-time migration of a Presto profile. It reads
// container files through afero, dispatches them to the matching decoder and
// hands the decoded records to a Sink. The Sink is the only outward contract;
// what happens to the records afterwards is up to it.
//
// Master password key material lives only for one session: it is wiped by
// Close, and ImportProfile closes the session when it returns.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"github.com/warpdl/prestoimport/internal/cookies"
	"github.com/warpdl/prestoimport/internal/profile"
	"github.com/warpdl/prestoimport/internal/visited"
	"github.com/warpdl/prestoimport/internal/wand"
	"github.com/warpdl/prestoimport/pkg/credman/types"
	"github.com/warpdl/prestoimport/pkg/legacycrypt"
	"github.com/warpdl/prestoimport/pkg/logger"
)

var (
	// ErrNoCheckFile means a protected wand.dat was found but no check file
	// was loaded first.
	ErrNoCheckFile = errors.New("importer: wand.dat is protected but no master password check file was loaded")
	// ErrLocked means no candidate master password was accepted.
	ErrLocked = errors.New("importer: master password not accepted")
)

// Source identifies one imported container.
type Source struct {
	Path string
	Kind profile.Kind
	Size int64
	// Fingerprint is the xxhash of the file content. Sinks use it to notice
	// a container that was imported before.
	Fingerprint uint64
}

// Fingerprint hashes container content.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Sink receives decoded records. Exactly one of Cookies, Credentials or
// Visited is called per source, followed by Done.
type Sink interface {
	// Seen reports whether src was imported by an earlier run.
	Seen(src Source) (bool, error)
	Cookies(src Source, c []cookies.FlatCookie) error
	Credentials(src Source, c []types.Credential) error
	Visited(src Source, links []visited.Link) error
	Done(src Source) error
}

// PasswordSource hands out master password candidates.
type PasswordSource interface {
	// Next returns the next candidate, or an error when there are none left.
	Next() ([]byte, error)
	// Accepted is called with the candidate that unlocked the vault.
	Accepted(pw []byte)
}

// Result is the outcome for one container.
type Result struct {
	Source Source
	// Skipped is set when the sink had already seen the source.
	Skipped bool
	Records int
	Dropped int
	Err     error
}

type Importer struct {
	Fs       afero.Fs
	Sink     Sink
	Log      logger.Logger
	Password PasswordSource
	// Progress, when set, is called after every container of ImportProfile.
	Progress func(done, total int)
	// Force imports sources the sink has already seen.
	Force bool

	checkCode []byte
	key       []byte
}

func New(fs afero.Fs, sink Sink, l logger.Logger) *Importer {
	return &Importer{Fs: fs, Sink: sink, Log: logger.OrNop(l)}
}

// Close wipes the session's master password material.
func (im *Importer) Close() {
	legacycrypt.Wipe(im.key)
	legacycrypt.Wipe(im.checkCode)
	im.key, im.checkCode = nil, nil
}

// ImportFile imports one container. kind may be KindUnknown, in which case
// the file is detected.
func (im *Importer) ImportFile(ctx context.Context, p string, kind profile.Kind) (Result, error) {
	return im.importFrom(ctx, p, p, kind)
}

// importFrom reads readPath but reports the source as p, so a safe copy is
// recorded under its original location.
func (im *Importer) importFrom(ctx context.Context, p, readPath string, kind profile.Kind) (Result, error) {
	res := Result{Source: Source{Path: p, Kind: kind}}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if kind == profile.KindUnknown {
		k, err := profile.Detect(im.Fs, readPath)
		if err != nil {
			return res, err
		}
		res.Source.Kind = k
	}
	data, err := afero.ReadFile(im.Fs, readPath)
	if err != nil {
		return res, fmt.Errorf("error: cannot read %s: %w", p, err)
	}
	res.Source.Size = int64(len(data))
	res.Source.Fingerprint = Fingerprint(data)

	if res.Source.Kind == profile.KindCheckFile {
		code, err := legacycrypt.LoadCheckCode(bytes.NewReader(data))
		if err != nil {
			return res, err
		}
		// A key unlocked under the previous check code no longer applies.
		legacycrypt.Wipe(im.key)
		legacycrypt.Wipe(im.checkCode)
		im.key, im.checkCode = nil, code
		im.log().Debug("importer: loaded master password check code from %s", p)
		return res, nil
	}

	if !im.Force {
		seen, err := im.Sink.Seen(res.Source)
		if err != nil {
			return res, err
		}
		if seen {
			res.Skipped = true
			im.log().Info("%s: already imported, skipping", p)
			return res, nil
		}
	}

	switch res.Source.Kind {
	case profile.KindCookies:
		err = im.importCookies(data, &res)
	case profile.KindVisited:
		err = im.importVisited(data, &res)
	case profile.KindWand:
		err = im.importWand(data, &res)
	default:
		err = fmt.Errorf("%w: %s", profile.ErrUnknownKind, p)
	}
	if err != nil {
		return res, err
	}
	if err := im.Sink.Done(res.Source); err != nil {
		return res, err
	}
	im.log().Info("%s: imported %d %s records", p, res.Records, res.Source.Kind)
	return res, nil
}

func (im *Importer) log() logger.Logger {
	return logger.OrNop(im.Log)
}

func (im *Importer) importCookies(data []byte, res *Result) error {
	jar, err := cookies.Parse(bytes.NewReader(data), im.Log)
	if err != nil {
		return err
	}
	flat, dropped := cookies.Flatten(&jar.Root)
	res.Records, res.Dropped = len(flat), jar.Dropped+dropped
	if res.Dropped > 0 {
		im.log().Warning("%s: dropped %d cookies", res.Source.Path, res.Dropped)
	}
	return im.Sink.Cookies(res.Source, flat)
}

func (im *Importer) importVisited(data []byte, res *Result) error {
	h, err := visited.Parse(bytes.NewReader(data), im.Log)
	if err != nil {
		return err
	}
	res.Records, res.Dropped = len(h.Links), h.Incomplete
	return im.Sink.Visited(res.Source, h.Links)
}

func (im *Importer) importWand(data []byte, res *Result) error {
	pre, err := wand.ReadPrologue(bytes.NewReader(data))
	if err != nil {
		return err
	}
	var key []byte
	if pre.Protected() {
		if key, err = im.unlock(); err != nil {
			return err
		}
	}
	v, err := wand.Parse(bytes.NewReader(data), wand.Options{MasterKey: key, Log: im.Log})
	if err != nil {
		return err
	}
	creds := wand.Credentials(v)
	res.Records = len(creds)
	return im.Sink.Credentials(res.Source, creds)
}

// unlock returns the session key, asking the password source until a
// candidate decrypts the check code.
func (im *Importer) unlock() ([]byte, error) {
	if im.key != nil {
		return im.key, nil
	}
	if im.checkCode == nil {
		return nil, ErrNoCheckFile
	}
	if im.Password == nil {
		return nil, wand.ErrMasterPassword
	}
	mp := legacycrypt.NewMasterPassword(im.checkCode)
	for attempt := 1; ; attempt++ {
		pw, err := im.Password.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		key, err := mp.Check(pw)
		if errors.Is(err, legacycrypt.ErrWrongPassword) {
			legacycrypt.Wipe(pw)
			im.log().Warning("master password rejected (attempt %d)", attempt)
			continue
		}
		if err != nil {
			legacycrypt.Wipe(pw)
			return nil, err
		}
		im.Password.Accepted(pw)
		legacycrypt.Wipe(pw)
		im.key = key
		return key, nil
	}
}

// ImportProfile imports every container below dir. Each one is copied out
// of the profile first. Check files are loaded before anything else so a
// protected wand.dat can be unlocked. A failing container is logged and
// recorded in its Result; the others still run.
func (im *Importer) ImportProfile(ctx context.Context, dir string) ([]Result, error) {
	defer im.Close()
	found, err := profile.Scan(im.Fs, dir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Kind == profile.KindCheckFile && found[j].Kind != profile.KindCheckFile
	})

	results := make([]Result, 0, len(found))
	for i, c := range found {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := im.importCopy(ctx, c)
		if err != nil {
			res.Err = err
			im.log().Error("%s: %v", c.Path, err)
		}
		results = append(results, res)
		if im.Progress != nil {
			im.Progress(i+1, len(found))
		}
	}
	return results, nil
}

func (im *Importer) importCopy(ctx context.Context, c profile.Container) (Result, error) {
	tmp, cleanup, err := profile.SafeCopy(im.Fs, c.Path)
	if err != nil {
		return Result{Source: Source{Path: c.Path, Kind: c.Kind}}, err
	}
	defer cleanup()
	return im.importFrom(ctx, c.Path, filepath.Join(tmp, filepath.Base(c.Path)), c.Kind)
}
