//go:build !windows

package flagstore

import "github.com/SamJakob/MageArenaFlagEditor/core/errors"

func newRegistryStore() (Store, error) {
	return nil, errors.NewUnsupported("registry store", "only available on Windows")
}

func defaultStore() (Store, error) {
	path, err := DefaultFilePath()
	if err != nil {
		return nil, err
	}
	return &FileStore{Path: path}, nil
}
