//go:build windows

package flagstore

import (
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"

	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

const (
	// gameKeyPath is Mage Arena's settings key under HKEY_CURRENT_USER.
	gameKeyPath = `Software\jrsjams\MageArena`

	// flagValuePrefix prefixes the flag grid value name; the suffix varies
	// per install, so the value is located by prefix scan.
	flagValuePrefix = "flagGrid_"
)

// RegistryStore reads and writes the flag payload in the game's registry
// slot. This is the default store on Windows.
type RegistryStore struct{}

func newRegistryStore() (Store, error) {
	return &RegistryStore{}, nil
}

func defaultStore() (Store, error) {
	return newRegistryStore()
}

// locateFlagValue scans the game key's value names for the flag prefix.
func locateFlagValue(key registry.Key) (string, error) {
	names, err := key.ReadValueNames(0)
	if err != nil {
		return "", errors.NewAccess("index", `HKEY_CURRENT_USER\`+gameKeyPath, err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, flagValuePrefix) {
			return name, nil
		}
	}
	return "", errors.NewAccess("find",
		fmt.Sprintf("flag grid value (expected registry value with prefix %s)", flagValuePrefix), nil)
}

// ReadFlag returns the stored flag payload from the registry.
func (s *RegistryStore) ReadFlag() ([]byte, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, gameKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return nil, errors.NewAccess("open", `HKEY_CURRENT_USER\`+gameKeyPath, err)
	}
	defer key.Close()

	name, err := locateFlagValue(key)
	if err != nil {
		return nil, err
	}

	data, _, err := key.GetBinaryValue(name)
	if err != nil {
		return nil, errors.NewAccess("read", s.Location(), err)
	}
	if len(data) == 0 {
		return nil, errors.NewValue("flag data", "flag data is missing")
	}
	return data, nil
}

// WriteFlag replaces the stored flag payload in the registry.
func (s *RegistryStore) WriteFlag(data []byte) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, gameKeyPath,
		registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return errors.NewAccess("open", `HKEY_CURRENT_USER\`+gameKeyPath, err)
	}
	defer key.Close()

	name, err := locateFlagValue(key)
	if err != nil {
		return err
	}

	if err := key.SetBinaryValue(name, data); err != nil {
		return errors.NewAccess("write", s.Location(), err)
	}
	return nil
}

// Location names the registry slot.
func (s *RegistryStore) Location() string {
	return `registry:HKEY_CURRENT_USER\` + gameKeyPath + `\` + flagValuePrefix + "*"
}
