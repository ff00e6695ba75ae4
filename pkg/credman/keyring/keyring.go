// Package keyring stores the Presto master password outside the profile so
// unattended imports can unlock protected wand.dat files. The operating
// system keyring is preferred; FileStore is the fallback for hosts without
// one.
package keyring

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name entries are filed under.
const DefaultService = "prestoimport"

// ErrNotFound is returned when no password is stored.
var ErrNotFound = errors.New("keyring: no stored master password")

// Store is a place a master password can be kept.
type Store interface {
	GetPassword() ([]byte, error)
	SetPassword(pw []byte) error
	DeletePassword() error
}

type Keyring struct {
	Service string
	User    string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

// NewKeyring returns a keyring entry for the profile owner user. An empty
// service selects DefaultService.
func NewKeyring(service, user string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	if user == "" {
		user = "default"
	}
	return &Keyring{Service: service, User: user}
}

func (k *Keyring) SetPassword(pw []byte) error {
	return keyringSet(k.Service, k.User, hex.EncodeToString(pw))
}

// GetPassword returns the stored password bytes. The value is kept hex
// encoded so passwords that are not valid UTF-8 survive the round trip.
func (k *Keyring) GetPassword() ([]byte, error) {
	s, err := keyringGet(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("keyring: invalid stored value: %w", err)
	}
	return pw, nil
}

func (k *Keyring) DeletePassword() error {
	err := keyringDelete(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
