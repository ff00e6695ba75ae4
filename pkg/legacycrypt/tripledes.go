// Package legacycrypt reproduces the password encryption used by the Presto
// wand and its master password check. The scheme predates authenticated
// encryption and is kept bit-exact for compatibility: Triple DES in a
// byte-oriented CBC mode with fixed-byte padding, MD5-chained key
// derivation and a SHA-1 salt that doubles as the only integrity check.
package legacycrypt

import (
	"crypto/cipher"
	"crypto/des"
	"errors"
	"fmt"
)

var (
	// ErrKeySize means a key was neither 16 nor 24 bytes long.
	ErrKeySize = errors.New("legacycrypt: key must be 16 or 24 bytes")
	// ErrNoKey means an operation ran before the matching key was set.
	ErrNoKey = errors.New("legacycrypt: key not set")
	// ErrBlockSize means a block operation was handed the wrong amount of data.
	ErrBlockSize = errors.New("legacycrypt: input is not a single block")
)

// BlockCipher is a keyed block primitive with separate encrypt and decrypt
// key schedules.
type BlockCipher interface {
	SetEncryptKey(key []byte) error
	SetDecryptKey(key []byte) error
	EncryptBlock(dst, src []byte) error
	DecryptBlock(dst, src []byte) error
	KeySize() int
	BlockSize() int
}

// TripleDES is DES in EDE3 configuration. A 16 byte key is expanded to
// K1,K2,K1.
type TripleDES struct {
	enc cipher.Block
	dec cipher.Block
}

// NewTripleDES returns a cipher with no key set.
func NewTripleDES() *TripleDES {
	return &TripleDES{}
}

func expandKey(key []byte) ([]byte, error) {
	switch len(key) {
	case 24:
		k := make([]byte, 24)
		copy(k, key)
		return k, nil
	case 16:
		k := make([]byte, 24)
		copy(k, key)
		copy(k[16:], key[:8])
		return k, nil
	}
	return nil, fmt.Errorf("%w: got %d", ErrKeySize, len(key))
}

func newBlock(key []byte) (cipher.Block, error) {
	k, err := expandKey(key)
	if err != nil {
		return nil, err
	}
	defer Wipe(k)
	return des.NewTripleDESCipher(k)
}

// SetEncryptKey installs the key used by EncryptBlock.
func (t *TripleDES) SetEncryptKey(key []byte) error {
	b, err := newBlock(key)
	if err != nil {
		return err
	}
	t.enc = b
	return nil
}

// SetDecryptKey installs the key used by DecryptBlock.
func (t *TripleDES) SetDecryptKey(key []byte) error {
	b, err := newBlock(key)
	if err != nil {
		return err
	}
	t.dec = b
	return nil
}

// EncryptBlock encrypts exactly one 8 byte block.
func (t *TripleDES) EncryptBlock(dst, src []byte) error {
	if t.enc == nil {
		return ErrNoKey
	}
	if len(src) != des.BlockSize || len(dst) < des.BlockSize {
		return ErrBlockSize
	}
	t.enc.Encrypt(dst, src)
	return nil
}

// DecryptBlock decrypts exactly one 8 byte block.
func (t *TripleDES) DecryptBlock(dst, src []byte) error {
	if t.dec == nil {
		return ErrNoKey
	}
	if len(src) != des.BlockSize || len(dst) < des.BlockSize {
		return ErrBlockSize
	}
	t.dec.Decrypt(dst, src)
	return nil
}

// KeySize is the full EDE3 key length.
func (t *TripleDES) KeySize() int {
	return 24
}

// BlockSize is always 8.
func (t *TripleDES) BlockSize() int {
	return des.BlockSize
}

// Wipe zeroes b. Key material is wiped as soon as the decode that needed it
// is done.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

var _ BlockCipher = (*TripleDES)(nil)
