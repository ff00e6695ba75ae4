package legacycrypt

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
)

// SaltLength is the salt size written by EncryptBlob.
const SaltLength = 8

// maxSaltLength bounds any salt accepted from a blob or requested from
// DeriveSalt.
const maxSaltLength = 64

// saltSeed is mixed into every salt between the password and the data.
var saltSeed = []byte("opera.com wand")

var (
	// ErrSaltLength means a salt longer than the derivation can produce:
	// DeriveSalt yields at most sha1.Size (20) bytes, and blobs may declare
	// at most 64.
	ErrSaltLength = errors.New("legacycrypt: salt too long")
	// ErrMalformed means the blob framing is truncated or inconsistent.
	ErrMalformed = errors.New("legacycrypt: malformed encrypted blob")
	// ErrSaltMismatch means the salt derived from the decrypted data does not
	// match the stored one: wrong password or tampered data.
	ErrSaltMismatch = errors.New("legacycrypt: salt mismatch")
)

// DeriveSalt returns SHA1(password ++ seed ++ data)[:n]. n is capped at
// sha1.Size.
func DeriveSalt(data, password, seed []byte, n int) ([]byte, error) {
	if n < 0 || n > sha1.Size {
		return nil, fmt.Errorf("%w: %d bytes", ErrSaltLength, n)
	}
	h := sha1.New()
	h.Write(password)
	h.Write(seed)
	h.Write(data)
	sum := h.Sum(nil)
	return sum[:n], nil
}

// DeriveKeyAndIV stretches password and salt with a chain of MD5 digests,
// each over the previous digest (absent the first time), the password and
// the salt, until keyLen+ivLen bytes exist.
func DeriveKeyAndIV(password, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	need := keyLen + ivLen
	out := make([]byte, 0, need+md5.Size)
	var prev []byte
	for len(out) < need {
		h := md5.New()
		if prev != nil {
			h.Write(prev)
		}
		h.Write(password)
		h.Write(salt)
		prev = h.Sum(nil)
		out = append(out, prev...)
	}
	key = append([]byte(nil), out[:keyLen]...)
	iv = append([]byte(nil), out[keyLen:need]...)
	Wipe(out)
	return key, iv
}

func newBlobCipher(password, salt []byte) (*CBC, error) {
	block := NewTripleDES()
	key, iv := DeriveKeyAndIV(password, salt, block.KeySize(), block.BlockSize())
	defer Wipe(key)
	c := NewCBC(block, PadFixedByte)
	if err := c.SetKey(key); err != nil {
		return nil, err
	}
	if err := c.SetIV(iv); err != nil {
		return nil, err
	}
	return c, nil
}

// EncryptBlob encrypts plaintext under password and frames it as
// [u32 salt length][salt][u32 ciphertext length][ciphertext], big-endian.
func EncryptBlob(plaintext, password []byte) ([]byte, error) {
	salt, err := DeriveSalt(plaintext, password, saltSeed, SaltLength)
	if err != nil {
		return nil, err
	}
	c, err := newBlobCipher(password, salt)
	if err != nil {
		return nil, err
	}
	defer c.Reset()
	ct, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 8+len(salt)+len(ct))
	out = binary.BigEndian.AppendUint32(out, uint32(len(salt)))
	out = append(out, salt...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(ct)))
	out = append(out, ct...)
	return out, nil
}

// parseBlob splits a blob into salt and ciphertext without allocating.
func parseBlob(blob []byte) (salt, ct []byte, err error) {
	if len(blob) < 4 {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(blob))
	}
	saltLen := binary.BigEndian.Uint32(blob)
	rest := blob[4:]
	if saltLen > maxSaltLength || uint64(saltLen) > uint64(len(rest)) {
		return nil, nil, fmt.Errorf("%w: salt length %d", ErrMalformed, saltLen)
	}
	salt, rest = rest[:saltLen], rest[saltLen:]
	if len(rest) < 4 {
		return nil, nil, fmt.Errorf("%w: missing ciphertext length", ErrMalformed)
	}
	ctLen := binary.BigEndian.Uint32(rest)
	rest = rest[4:]
	if uint64(ctLen) > uint64(len(rest)) || ctLen < 8 {
		return nil, nil, fmt.Errorf("%w: ciphertext length %d", ErrMalformed, ctLen)
	}
	return salt, rest[:ctLen], nil
}

// DecryptBlob reverses EncryptBlob. Success requires the salt re-derived
// from the recovered plaintext to match the stored salt; there is no MAC.
func DecryptBlob(blob, password []byte) ([]byte, error) {
	salt, ct, err := parseBlob(blob)
	if err != nil {
		return nil, err
	}
	c, err := newBlobCipher(password, salt)
	if err != nil {
		return nil, err
	}
	defer c.Reset()
	buf := make([]byte, len(ct))
	if err := c.Decrypt(buf, ct); err != nil {
		return nil, err
	}
	n, err := c.DecryptedLength(buf)
	if err != nil {
		Wipe(buf)
		return nil, err
	}
	plain := buf[:n]
	check, err := DeriveSalt(plain, password, saltSeed, len(salt))
	if err != nil {
		Wipe(buf)
		return nil, err
	}
	if subtle.ConstantTimeCompare(check, salt) != 1 {
		Wipe(buf)
		return nil, ErrSaltMismatch
	}
	return plain, nil
}
