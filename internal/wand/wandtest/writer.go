// Package wandtest serializes wand.dat content for tests.
package wandtest

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/warpdl/prestoimport/pkg/legacycrypt"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Writer appends positional big-endian wand fields.
type Writer struct {
	t   testing.TB
	buf bytes.Buffer
}

func New(t testing.TB) *Writer {
	t.Helper()
	return &Writer{t: t}
}

func (w *Writer) U32(v uint32) *Writer {
	binary.Write(&w.buf, binary.BigEndian, v)
	return w
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

func (w *Writer) Raw(p []byte) *Writer {
	w.buf.Write(p)
	return w
}

// UTF16 encodes s as UTF-16LE, optionally with a trailing NUL unit.
func UTF16(t testing.TB, s string, nul bool) []byte {
	t.Helper()
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if nul {
		b = append(b, 0, 0)
	}
	return b
}

// Blob writes plain as a length prefixed encrypted blob under key.
func (w *Writer) Blob(plain, key []byte) *Writer {
	w.t.Helper()
	blob, err := legacycrypt.EncryptBlob(plain, key)
	if err != nil {
		w.t.Fatalf("EncryptBlob: %v", err)
	}
	return w.U32(uint32(len(blob))).Raw(blob)
}

// Str writes an ordinary field.
func (w *Writer) Str(s string) *Writer {
	if s == "" {
		return w.U32(0)
	}
	return w.Blob(UTF16(w.t, s, true), legacycrypt.ObfuscationKey())
}

// Pass writes a password field under key.
func (w *Writer) Pass(s string, key []byte) *Writer {
	return w.Blob(UTF16(w.t, s, false), key)
}

// EmptyProfile writes a profile with no pages.
func (w *Writer) EmptyProfile(name string) *Writer {
	return w.Str(name).U32(0)
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Login describes one saved login for Vault.
type Login struct {
	URL, Username, Password string
}

// Vault writes a complete version 6 wand.dat with no forms and the given
// logins. A nil masterKey writes an unprotected vault.
func Vault(t testing.TB, masterKey []byte, logins ...Login) []byte {
	t.Helper()
	flags, pwKey := uint32(0), legacycrypt.ObfuscationKey()
	if masterKey != nil {
		flags, pwKey = 1, masterKey
	}
	w := New(t)
	w.U32(6).U32(flags).U32(1)
	w.U32(0) // profiles
	w.U32(0) // current profile
	w.EmptyProfile("")
	w.U32(uint32(len(logins)))
	for _, l := range logins {
		w.Str(l.URL).Str(l.Username).Pass(l.Password, pwKey)
	}
	return w.Bytes()
}
