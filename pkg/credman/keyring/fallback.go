package keyring

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultFileName is the FileStore file used when no name is given.
	DefaultFileName  = "master.pw"
	passwordFileMode = 0600
)

// FileStore keeps a secret hex encoded in a 0600 file. It is used when the
// system keyring is unavailable.
type FileStore struct {
	configDir string
	name      string
}

var (
	fileReadFile = os.ReadFile
	fileRemove   = os.Remove
	fileRename   = os.Rename
	fileMkdirAll = os.MkdirAll
	fileTempFile = os.CreateTemp
)

func NewFileStore(configDir, name string) *FileStore {
	if name == "" {
		name = DefaultFileName
	}
	return &FileStore{configDir: configDir, name: name}
}

func (f *FileStore) path() string {
	return filepath.Join(f.configDir, f.name)
}

// SetPassword writes pw atomically through a temporary file and rename.
func (f *FileStore) SetPassword(pw []byte) error {
	if err := fileMkdirAll(f.configDir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := fileTempFile(f.configDir, "."+f.name+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(passwordFileMode); err != nil {
		tmp.Close()
		fileRemove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if _, err := tmp.WriteString(hex.EncodeToString(pw)); err != nil {
		tmp.Close()
		fileRemove(tmpPath)
		return fmt.Errorf("write password: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fileRename(tmpPath, f.path()); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("rename password file: %w", err)
	}
	return nil
}

func (f *FileStore) GetPassword() ([]byte, error) {
	data, err := fileReadFile(f.path())
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	pw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid password file: %w", err)
	}
	return pw, nil
}

func (f *FileStore) DeletePassword() error {
	err := fileRemove(f.path())
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

type fallbackStore struct {
	primary, fallback Store
}

// WithFallback returns a Store that prefers primary. Reads fall through to
// fallback whenever primary has nothing, and writes go to fallback when
// primary fails, e.g. when no keyring daemon is running.
func WithFallback(primary, fallback Store) Store {
	return &fallbackStore{primary: primary, fallback: fallback}
}

func (s *fallbackStore) GetPassword() ([]byte, error) {
	if pw, err := s.primary.GetPassword(); err == nil {
		return pw, nil
	}
	return s.fallback.GetPassword()
}

func (s *fallbackStore) SetPassword(pw []byte) error {
	if err := s.primary.SetPassword(pw); err != nil {
		return s.fallback.SetPassword(pw)
	}
	return nil
}

func (s *fallbackStore) DeletePassword() error {
	perr := s.primary.DeletePassword()
	ferr := s.fallback.DeletePassword()
	if perr == nil || ferr == nil {
		return nil
	}
	if errors.Is(perr, ErrNotFound) {
		return ferr
	}
	return perr
}

// ReadPasswordFile reads a plain text password file given on the command
// line. Only the first line is used.
func ReadPasswordFile(path string) ([]byte, error) {
	data, err := fileReadFile(path)
	if err != nil {
		return nil, err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return []byte(strings.TrimRight(line, "\r")), nil
}
