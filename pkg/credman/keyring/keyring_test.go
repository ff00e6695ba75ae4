package keyring

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringSetGetDelete(t *testing.T) {
	origSet := keyringSet
	origGet := keyringGet
	origDelete := keyringDelete
	defer func() {
		keyringSet = origSet
		keyringGet = origGet
		keyringDelete = origDelete
	}()

	stored := map[string]string{}
	keyringSet = func(service, user, value string) error {
		stored[service+"/"+user] = value
		return nil
	}
	keyringGet = func(service, user string) (string, error) {
		v, ok := stored[service+"/"+user]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringDelete = func(service, user string) error {
		if _, ok := stored[service+"/"+user]; !ok {
			return keyring.ErrNotFound
		}
		delete(stored, service+"/"+user)
		return nil
	}

	kr := NewKeyring("", "")
	if kr.Service != DefaultService || kr.User != "default" {
		t.Fatalf("unexpected defaults %+v", kr)
	}
	if _, err := kr.GetPassword(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	pw := []byte{'p', 0xff, 'w'}
	if err := kr.SetPassword(pw); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if stored[DefaultService+"/default"] != hex.EncodeToString(pw) {
		t.Fatalf("expected hex encoded value, got %q", stored[DefaultService+"/default"])
	}
	got, err := kr.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword: %v", err)
	}
	if !bytes.Equal(got, pw) {
		t.Fatalf("roundtrip failed: got %x, want %x", got, pw)
	}

	if err := kr.DeletePassword(); err != nil {
		t.Fatalf("DeletePassword: %v", err)
	}
	if err := kr.DeletePassword(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestKeyringGetErrors(t *testing.T) {
	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	kr := NewKeyring("svc", "me")
	keyringGet = func(string, string) (string, error) {
		return "", errors.New("get fail")
	}
	if _, err := kr.GetPassword(); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected backend error, got %v", err)
	}

	keyringGet = func(string, string) (string, error) {
		return "not-valid-hex!", nil
	}
	if _, err := kr.GetPassword(); err == nil {
		t.Fatal("expected error for invalid hex string")
	}
}

func TestKeyringSetError(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	keyringSet = func(string, string, string) error { return errors.New("set fail") }
	if err := NewKeyring("", "").SetPassword([]byte("x")); err == nil {
		t.Fatal("expected set error")
	}
}
