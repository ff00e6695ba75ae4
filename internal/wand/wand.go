// Package wand decodes the Presto password manager store (wand.dat).
//
// Unlike the other profile files, wand.dat is not a tag stream. It is a
// positional big-endian layout whose prologue depends on the format version,
// and every string in it is an encrypted blob holding UTF-16LE text. Ordinary
// fields use a fixed obfuscation key; password fields use the master password
// key when the user set one.
package wand

import (
	"errors"
	"fmt"
	"io"

	"github.com/warpdl/prestoimport/pkg/logger"
	"github.com/warpdl/prestoimport/pkg/tagstream"
)

// MasterPasswordVersion is the first format version with the security flags
// and check version prologue.
const MasterPasswordVersion = 5

// SecurityMasterPassword is the security flag bit set when password fields
// are encrypted with the master password key.
const SecurityMasterPassword = 0x1

// ErrMasterPassword means the vault is protected by a master password and
// no key was supplied.
var ErrMasterPassword = errors.New("wand: master password required")

// Minimum encoded sizes, used to reject counts the input cannot hold.
const (
	minProfile = 4 + 4
	minObject  = 1 + 1 + 4 + 4
	minLogin   = 4 + 4 + 4
)

func minPage(version uint32) int64 {
	n := int64(4 + 4 + 4*4 + 4)
	if version >= MasterPasswordVersion {
		n += 4
	}
	return n
}

// Object is one form field. Value is SENSITIVE when Password is set.
type Object struct {
	Password bool
	Changed  bool
	Name     string
	Value    string
}

// Page is a saved form.
type Page struct {
	URL       string
	ActionURL string
	TopDocURL string
	FormIndex uint32
	OffsetX   uint32
	OffsetY   uint32
	Flags     uint32
	Objects   []Object
}

// Profile is a named set of saved forms.
type Profile struct {
	Name  string
	Pages []Page
}

// Login is a saved HTTP authentication login. Password is SENSITIVE.
type Login struct {
	URL      string
	Username string
	Password string
}

// Vault is a decoded wand.dat.
type Vault struct {
	Version       uint32
	StoreSecurity uint32
	SecurityFlags uint32
	CheckVersion  uint32

	Profiles       []Profile
	CurrentProfile uint32
	LogProfile     Profile
	Logins         []Login
}

// Current returns the selected profile, or nil if the index is out of range.
func (v *Vault) Current() *Profile {
	if int64(v.CurrentProfile) >= int64(len(v.Profiles)) {
		return nil
	}
	return &v.Profiles[v.CurrentProfile]
}

// Protected reports whether password fields use the master password key.
func (v *Vault) Protected() bool {
	if v.Version >= MasterPasswordVersion {
		return v.SecurityFlags&SecurityMasterPassword != 0
	}
	return v.StoreSecurity != 0
}

// Options controls Parse.
type Options struct {
	// MasterKey is the effective key returned by
	// legacycrypt.MasterPassword.Check. Nil when none was entered.
	MasterKey []byte
	Log       logger.Logger
}

// decoder reads the positional vault body. Field reads inside a record
// ignore their errors: cursor and decryption failures are both sticky, and
// recordErr reports them once the record is read.
type decoder struct {
	c       *tagstream.Cursor
	s       *StringDecoder
	version uint32
}

func (d *decoder) recordErr() error {
	if err := d.c.Err(); err != nil {
		return err
	}
	return d.s.Err()
}

// Parse decodes a wand.dat stream. It returns ErrMasterPassword when the
// vault is protected and opts.MasterKey is nil, and an error wrapping
// ErrDecrypt when any field failed to decrypt.
func Parse(src io.Reader, opts Options) (*Vault, error) {
	log := logger.OrNop(opts.Log)
	c := tagstream.NewCursor(src, tagstream.BigEndian)
	v := &Vault{}
	if err := readPrologue(c, v); err != nil {
		return nil, fmt.Errorf("wand: %w", err)
	}
	if v.Protected() && opts.MasterKey == nil {
		return nil, ErrMasterPassword
	}
	d := &decoder{c: c, version: v.Version, s: NewStringDecoder(c, opts.MasterKey)}
	if err := d.body(v); err != nil {
		return nil, fmt.Errorf("wand: %w", err)
	}
	if d.s.DecryptFailed() {
		return nil, d.s.Err()
	}
	log.Debug("wand: version %d, %d profiles, %d logins", v.Version, len(v.Profiles), len(v.Logins))
	return v, nil
}

// ReadPrologue reads only the version dependent header, enough to learn
// whether a master password is needed.
func ReadPrologue(src io.Reader) (*Vault, error) {
	v := &Vault{}
	if err := readPrologue(tagstream.NewCursor(src, tagstream.BigEndian), v); err != nil {
		return nil, fmt.Errorf("wand: %w", err)
	}
	return v, nil
}

func readPrologue(c *tagstream.Cursor, v *Vault) error {
	var err error
	if v.Version, err = c.ReadU32(); err != nil {
		return err
	}
	if v.Version < MasterPasswordVersion {
		v.StoreSecurity, err = c.ReadU32()
		return err
	}
	v.SecurityFlags, _ = c.ReadU32()
	v.CheckVersion, err = c.ReadU32()
	return err
}

// count reads an item count and checks that count items of at least min
// bytes each can still be present.
func (d *decoder) count(min int64) (uint32, error) {
	n, err := d.c.ReadU32()
	if err != nil {
		return 0, err
	}
	if !d.c.Fits(int64(n) * min) {
		return 0, d.c.Fail(fmt.Errorf("%w: %d items at offset %d", tagstream.ErrTooLarge, n, d.c.Pos()))
	}
	return n, nil
}

func (d *decoder) body(v *Vault) error {
	n, err := d.count(minProfile)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		p, err := d.profile()
		if err != nil {
			return err
		}
		v.Profiles = append(v.Profiles, p)
	}
	if v.CurrentProfile, err = d.c.ReadU32(); err != nil {
		return err
	}
	if v.LogProfile, err = d.profile(); err != nil {
		return err
	}
	if n, err = d.count(minLogin); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		var l Login
		l.URL, _ = d.s.ReadString()
		l.Username, _ = d.s.ReadString()
		l.Password, _ = d.s.ReadPassword()
		if err := d.recordErr(); err != nil {
			return err
		}
		v.Logins = append(v.Logins, l)
	}
	return nil
}

func (d *decoder) profile() (Profile, error) {
	var p Profile
	p.Name, _ = d.s.ReadString()
	n, err := d.count(minPage(d.version))
	if err != nil {
		return p, err
	}
	for i := uint32(0); i < n; i++ {
		pg, err := d.page()
		if err != nil {
			return p, err
		}
		p.Pages = append(p.Pages, pg)
	}
	return p, nil
}

func (d *decoder) page() (Page, error) {
	var pg Page
	pg.URL, _ = d.s.ReadString()
	pg.ActionURL, _ = d.s.ReadString()
	pg.FormIndex, _ = d.c.ReadU32()
	pg.OffsetX, _ = d.c.ReadU32()
	pg.OffsetY, _ = d.c.ReadU32()
	pg.Flags, _ = d.c.ReadU32()
	if d.version >= MasterPasswordVersion {
		pg.TopDocURL, _ = d.s.ReadString()
	}
	if err := d.recordErr(); err != nil {
		return pg, err
	}
	n, err := d.count(minObject)
	if err != nil {
		return pg, err
	}
	for i := uint32(0); i < n; i++ {
		var o Object
		pw, _ := d.c.ReadU8()
		changed, _ := d.c.ReadU8()
		o.Password, o.Changed = pw != 0, changed != 0
		o.Name, _ = d.s.ReadString()
		if o.Password {
			o.Value, _ = d.s.ReadPassword()
		} else {
			o.Value, _ = d.s.ReadString()
		}
		if err := d.recordErr(); err != nil {
			return pg, err
		}
		pg.Objects = append(pg.Objects, o)
	}
	return pg, nil
}
