package credman

import (
	"bytes"
	"errors"
	"testing"

	"github.com/warpdl/prestoimport/pkg/credman/encryption"
	"github.com/warpdl/prestoimport/pkg/credman/keyring"
	"github.com/warpdl/prestoimport/pkg/logger"
)

type memStore struct {
	pw     []byte
	getErr error
	sets   int
}

func (m *memStore) GetPassword() ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.pw == nil {
		return nil, keyring.ErrNotFound
	}
	return m.pw, nil
}

func (m *memStore) SetPassword(pw []byte) error {
	m.sets++
	m.pw = append([]byte(nil), pw...)
	return nil
}

func (m *memStore) DeletePassword() error {
	m.pw = nil
	return nil
}

func TestManager_StoresThenPrompts(t *testing.T) {
	mock := logger.NewMockLogger()
	broken := &memStore{getErr: errors.New("dbus down")}
	empty := &memStore{}
	m := NewManager(mock, broken, empty, Static([]byte("from-file")))
	var asked []int
	m.Prompt = func(attempt int) ([]byte, error) {
		asked = append(asked, attempt)
		return []byte("typed"), nil
	}
	m.MaxPrompts = 2

	want := []string{"from-file", "typed", "typed"}
	for i, w := range want {
		pw, err := m.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if string(pw) != w {
			t.Fatalf("Next %d = %q, want %q", i, pw, w)
		}
	}
	if _, err := m.Next(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if len(asked) != 2 || asked[0] != 1 || asked[1] != 2 {
		t.Fatalf("unexpected prompt attempts %v", asked)
	}
	if len(mock.WarningCalls) != 1 {
		t.Fatalf("expected the broken store to be logged once, got %v", mock.WarningCalls)
	}

	m.Reset()
	if pw, _ := m.Next(); string(pw) != "from-file" {
		t.Fatalf("Reset should start over, got %q", pw)
	}
}

func TestManager_RememberOnlyPromptedPasswords(t *testing.T) {
	remember := &memStore{}
	m := NewManager(nil, Static([]byte("stored")))
	m.Remember = remember
	m.Prompt = func(int) ([]byte, error) { return []byte("typed"), nil }

	pw, _ := m.Next()
	m.Accepted(pw)
	if remember.sets != 0 {
		t.Fatal("a stored password must not be written back")
	}
	pw, _ = m.Next()
	m.Accepted(pw)
	if remember.sets != 1 || string(remember.pw) != "typed" {
		t.Fatalf("expected prompted password remembered, got %q (%d sets)", remember.pw, remember.sets)
	}
}

func TestManager_PromptError(t *testing.T) {
	m := NewManager(nil)
	m.Prompt = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	if _, err := m.Next(); err == nil || errors.Is(err, ErrExhausted) {
		t.Fatalf("expected the prompt error, got %v", err)
	}
	if _, err := NewManager(nil).Next(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted without prompt, got %v", err)
	}
}

func TestStatic(t *testing.T) {
	s := Static([]byte("x"))
	pw, err := s.GetPassword()
	if err != nil || string(pw) != "x" {
		t.Fatalf("GetPassword = %q, %v", pw, err)
	}
	if s.SetPassword(nil) == nil || s.DeletePassword() == nil {
		t.Fatal("static store must be read-only")
	}
	if _, err := Static(nil).GetPassword(); !errors.Is(err, keyring.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty static store, got %v", err)
	}
}

func TestSealKey(t *testing.T) {
	s := &memStore{}
	key, err := SealKey(s)
	if err != nil {
		t.Fatalf("SealKey: %v", err)
	}
	if len(key) != encryption.KeySize || s.sets != 1 {
		t.Fatalf("expected a new stored key, len=%d sets=%d", len(key), s.sets)
	}
	again, err := SealKey(s)
	if err != nil || !bytes.Equal(key, again) || s.sets != 1 {
		t.Fatalf("expected the stored key to be reused, err=%v sets=%d", err, s.sets)
	}
	if _, err := SealKey(&memStore{getErr: errors.New("locked")}); err == nil {
		t.Fatal("expected store error")
	}
}

func TestSealKey_WrongLengthNotOverwritten(t *testing.T) {
	s := &memStore{pw: []byte("short")}
	if _, err := SealKey(s); !errors.Is(err, ErrBadSealKey) {
		t.Fatalf("expected ErrBadSealKey, got %v", err)
	}
	if s.sets != 0 {
		t.Fatalf("a corrupt key must not be replaced, got %d writes", s.sets)
	}
}
