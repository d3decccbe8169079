// Package flagstore persists the raw flag grid payload the way Mage Arena
// stores it: under the game's registry key on Windows, or in a local file
// everywhere else (and anywhere a file is explicitly requested).
package flagstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// Store reads and writes the raw flag grid payload.
type Store interface {
	// ReadFlag returns the stored payload. A missing backing resource is an
	// AccessError; an empty payload is a ValueError.
	ReadFlag() ([]byte, error)

	// WriteFlag replaces the stored payload.
	WriteFlag(data []byte) error

	// Location describes where the payload lives, for logs and errors.
	Location() string
}

// New builds a store from a selector string:
//
//	registry        the game's registry slot (Windows only)
//	file:<path>     a file at the given path
//	<empty>         the platform default
func New(selector string) (Store, error) {
	switch {
	case selector == "":
		return defaultStore()
	case selector == "registry":
		return newRegistryStore()
	case strings.HasPrefix(selector, "file:"):
		return &FileStore{Path: strings.TrimPrefix(selector, "file:")}, nil
	default:
		return nil, errors.NewIllegal("store", fmt.Sprintf("unknown store selector %q", selector))
	}
}

// FileStore keeps the flag payload in a single file. It is the default off
// Windows and the test double everywhere.
type FileStore struct {
	Path string
}

// DefaultFilePath returns the flag file location under the user config dir.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.NewAccess("locate", "user config directory", err)
	}
	return filepath.Join(dir, "mageflag", "flag.dat"), nil
}

// ReadFlag returns the file contents.
func (s *FileStore) ReadFlag() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.NewAccess("read", s.Path, err)
	}
	if len(data) == 0 {
		return nil, errors.NewValue("flag data", "flag data is missing")
	}
	return data, nil
}

// WriteFlag writes the payload, creating parent directories as needed. The
// write goes through a temporary file and rename so a crash never leaves a
// half-written flag.
func (s *FileStore) WriteFlag(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return errors.NewAccess("create", filepath.Dir(s.Path), err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.NewAccess("write", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return errors.NewAccess("write", s.Path, err)
	}
	return nil
}

// Location returns the backing file path.
func (s *FileStore) Location() string {
	return "file:" + s.Path
}
