package wand

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/warpdl/prestoimport/pkg/legacycrypt"
	"github.com/warpdl/prestoimport/pkg/tagstream"
)

// ErrDecrypt means a field could not be decrypted: wrong master password or
// a damaged vault.
var ErrDecrypt = errors.New("wand: field decryption failed")

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// StringDecoder reads the encrypted, length-prefixed UTF-16 strings of a
// wand file. A failed decryption is remembered separately from the stream's
// own failure state: the bytes were read fine, so decoding can go on, but the
// caller must not trust the vault.
type StringDecoder struct {
	c         *tagstream.Cursor
	masterKey []byte
	failed    bool
	err       error
}

// NewStringDecoder reads from c. masterKey is the effective master password
// key, or nil when password fields are protected by the obfuscation key.
func NewStringDecoder(c *tagstream.Cursor, masterKey []byte) *StringDecoder {
	return &StringDecoder{c: c, masterKey: masterKey}
}

// DecryptFailed reports whether any field failed to decrypt.
func (d *StringDecoder) DecryptFailed() bool {
	return d.failed
}

// Err returns the first decryption error.
func (d *StringDecoder) Err() error {
	return d.err
}

// ReadString reads an ordinary field: obfuscation key, trailing NUL unit
// removed.
func (d *StringDecoder) ReadString() (string, error) {
	return d.read(legacycrypt.ObfuscationKey(), true)
}

// ReadPassword reads a password field. It uses the master key when one is
// set, and keeps every code unit.
func (d *StringDecoder) ReadPassword() (string, error) {
	key := d.masterKey
	if key == nil {
		key = legacycrypt.ObfuscationKey()
	}
	return d.read(key, false)
}

func (d *StringDecoder) read(key []byte, stripNUL bool) (string, error) {
	n, err := d.c.ReadU32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	blob, err := d.c.ReadBytes(int64(n))
	if err != nil {
		return "", err
	}
	if d.failed {
		return "", nil
	}
	plain, err := legacycrypt.DecryptBlob(blob, key)
	if err != nil {
		d.failed = true
		d.err = fmt.Errorf("%w at offset %d: %w", ErrDecrypt, d.c.Pos(), err)
		return "", nil
	}
	defer legacycrypt.Wipe(plain)
	if stripNUL && len(plain) >= 2 && plain[len(plain)-2] == 0 && plain[len(plain)-1] == 0 {
		plain = plain[:len(plain)-2]
	}
	s, err := utf16le.NewDecoder().Bytes(plain)
	if err != nil {
		d.failed = true
		d.err = fmt.Errorf("%w at offset %d: %w", ErrDecrypt, d.c.Pos(), err)
		return "", nil
	}
	return string(s), nil
}
