// Package encryption seals secret values (passwords, cookie values) before
// they are written to the staging database. Values are AES-256-GCM sealed
// under a key kept in the system keyring; the column they belong to is bound
// in as additional data so a sealed password cannot be replayed as a cookie.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// KeySize is the sealing key length in bytes.
const KeySize = 32

const sealPrefix = "pim1"

var (
	ErrKeySize   = errors.New("encryption: key must be 32 bytes")
	ErrNotSealed = errors.New("encryption: value is not sealed")
)

var randReader io.Reader = rand.Reader

// NewKey returns a fresh random sealing key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(randReader, key); err != nil {
		return nil, err
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptValue seals value under key, binding aad.
func EncryptValue(value, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sealPrefix)+len(nonce)+len(value)+gcm.Overhead())
	out = append(out, sealPrefix...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, value, aad), nil
}

// DecryptValue opens a value produced by EncryptValue with the same aad.
func DecryptValue(sealed, key, aad []byte) ([]byte, error) {
	if len(sealed) < len(sealPrefix) || string(sealed[:len(sealPrefix)]) != sealPrefix {
		return nil, ErrNotSealed
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	body := sealed[len(sealPrefix):]
	if len(body) < gcm.NonceSize()+gcm.Overhead() {
		return nil, fmt.Errorf("encryption: sealed value too short")
	}
	nonce, data := body[:gcm.NonceSize()], body[gcm.NonceSize():]
	return gcm.Open(nil, nonce, data, aad)
}
