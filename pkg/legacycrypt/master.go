package legacycrypt

import (
	"errors"
	"fmt"
	"io"

	"github.com/warpdl/prestoimport/pkg/tagstream"
)

// TagCheckCode is the record in the security file that holds the encrypted
// master password check code.
const TagCheckCode = 0x28

var (
	// ErrWrongPassword means the candidate did not decrypt the check code.
	ErrWrongPassword = errors.New("legacycrypt: wrong master password")
	// ErrNoCheckCode means the security file has no check code record.
	ErrNoCheckCode = errors.New("legacycrypt: no master password check code")
)

var obfuscationKey = [11]byte{0x83, 0x7d, 0xfc, 0x0f, 0x8e, 0xb3, 0xe8, 0x69, 0x73, 0xaf, 0xff}

// ObfuscationKey returns the fixed key that protects wand fields when no
// master password is in effect. It is not a secret.
func ObfuscationKey() []byte {
	k := obfuscationKey
	return k[:]
}

// MasterPassword verifies candidate master passwords against a check code.
type MasterPassword struct {
	checkCode []byte
}

// NewMasterPassword wraps an encrypted check code blob.
func NewMasterPassword(checkCode []byte) *MasterPassword {
	return &MasterPassword{checkCode: append([]byte(nil), checkCode...)}
}

// Check decrypts the check code with candidate. On success it returns the
// key that protects password fields: the candidate bytes followed by the
// decrypted check code. The concatenation is what Presto used and is kept
// as is.
func (m *MasterPassword) Check(candidate []byte) ([]byte, error) {
	code, err := DecryptBlob(m.checkCode, candidate)
	if err != nil {
		if errors.Is(err, ErrSaltMismatch) || errors.Is(err, ErrPadding) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}
	defer Wipe(code)
	key := make([]byte, 0, len(candidate)+len(code))
	key = append(key, candidate...)
	key = append(key, code...)
	return key, nil
}

// CheckUserPassword reports whether candidate is the master password.
func (m *MasterPassword) CheckUserPassword(candidate []byte) bool {
	key, err := m.Check(candidate)
	Wipe(key)
	return err == nil
}

// LoadCheckCode reads the check code blob from a security file. Records other
// than the check code are skipped through their length prefix.
func LoadCheckCode(src io.Reader) ([]byte, error) {
	r := tagstream.NewReader(src, tagstream.BigEndian)
	if r.Failed() {
		return nil, r.Err()
	}
	var code []byte
	err := r.DecodeUntil(false, func(tag uint32) (bool, error) {
		switch {
		case tag == TagCheckCode:
			b, err := r.ReadSizedBytes()
			code = b
			return true, err
		case r.IsFlag(tag):
			return false, nil
		default:
			return false, r.SkipRecord()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("reading security file: %w", err)
	}
	if code == nil {
		return nil, ErrNoCheckCode
	}
	return code, nil
}
