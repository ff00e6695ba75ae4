// Package credman resolves the Presto master password for an import session
// and keeps the key used to seal secrets in the staging database.
package credman

import (
	"errors"
	"fmt"

	"github.com/warpdl/prestoimport/pkg/credman/encryption"
	"github.com/warpdl/prestoimport/pkg/credman/keyring"
	"github.com/warpdl/prestoimport/pkg/logger"
)

// DefaultMaxPrompts is how often the user is asked before giving up.
const DefaultMaxPrompts = 3

// ErrExhausted is returned by Next once every candidate was offered.
var ErrExhausted = errors.New("credman: no more master password candidates")

// PromptFunc asks the user for the master password. attempt starts at 1.
type PromptFunc func(attempt int) ([]byte, error)

// Manager hands out master password candidates: first whatever the stores
// hold, in order, then up to MaxPrompts interactive answers.
type Manager struct {
	Stores     []keyring.Store
	Prompt     PromptFunc
	MaxPrompts int
	// Remember, when set, receives a prompted password once it was accepted.
	Remember keyring.Store
	Log      logger.Logger

	next     int
	prompts  int
	prompted bool
}

func NewManager(l logger.Logger, stores ...keyring.Store) *Manager {
	return &Manager{
		Stores:     stores,
		MaxPrompts: DefaultMaxPrompts,
		Log:        logger.OrNop(l),
	}
}

// Next returns the next candidate or ErrExhausted. Store failures other than
// a missing entry are logged and skipped.
func (m *Manager) Next() ([]byte, error) {
	log := logger.OrNop(m.Log)
	for m.next < len(m.Stores) {
		s := m.Stores[m.next]
		m.next++
		pw, err := s.GetPassword()
		if errors.Is(err, keyring.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warning("credman: password store %d unavailable: %v", m.next, err)
			continue
		}
		m.prompted = false
		return pw, nil
	}
	if m.Prompt == nil || m.prompts >= m.MaxPrompts {
		return nil, ErrExhausted
	}
	m.prompts++
	pw, err := m.Prompt(m.prompts)
	if err != nil {
		return nil, err
	}
	m.prompted = true
	return pw, nil
}

// Accepted tells the manager the last candidate unlocked the vault.
func (m *Manager) Accepted(pw []byte) {
	if !m.prompted || m.Remember == nil {
		return
	}
	if err := m.Remember.SetPassword(pw); err != nil {
		logger.OrNop(m.Log).Warning("credman: could not remember master password: %v", err)
	}
}

// Reset starts over from the first store.
func (m *Manager) Reset() {
	m.next, m.prompts, m.prompted = 0, 0, false
}

type static []byte

// Static is a read-only store holding pw, used for --password-file.
func Static(pw []byte) keyring.Store {
	return static(pw)
}

func (s static) GetPassword() ([]byte, error) {
	if len(s) == 0 {
		return nil, keyring.ErrNotFound
	}
	return append([]byte(nil), s...), nil
}

func (static) SetPassword([]byte) error { return errors.New("credman: static store is read-only") }
func (static) DeletePassword() error    { return errors.New("credman: static store is read-only") }

// ErrBadSealKey means the stored sealing key has the wrong length. SealKey
// never replaces it.
var ErrBadSealKey = errors.New("credman: stored sealing key is corrupt")

// SealKey returns the staging database sealing key kept in s, generating
// and storing a new one on first use.
func SealKey(s keyring.Store) ([]byte, error) {
	key, err := s.GetPassword()
	switch {
	case err == nil && len(key) == encryption.KeySize:
		return key, nil
	case err == nil:
		clear(key)
		return nil, fmt.Errorf("%w: %d bytes", ErrBadSealKey, len(key))
	case !errors.Is(err, keyring.ErrNotFound):
		return nil, err
	}
	key, err = encryption.NewKey()
	if err != nil {
		return nil, err
	}
	if err := s.SetPassword(key); err != nil {
		return nil, err
	}
	return key, nil
}
