// Package config loads the optional mageflag YAML configuration file.
//
// Search order: the --config flag, $MAGEFLAG_CONFIG, then mageflag.yaml in
// the user config dir. An absent file yields zero-value defaults; malformed
// YAML is a startup error. Explicit CLI flags take precedence over file
// values, which take precedence over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

// EnvVar names the environment variable that points at the config file.
const EnvVar = "MAGEFLAG_CONFIG"

// Config holds the tool's file-configurable settings.
type Config struct {
	// Palette is the default palette BMP path, or a built-in palette name
	// prefixed with "builtin:".
	Palette string `yaml:"palette"`

	// Store is the default flag store selector (see flagstore.New).
	Store string `yaml:"store"`

	// VaultPath is the snapshot vault database location.
	VaultPath string `yaml:"vault_path"`

	// PreviewAddr is the preview server listen address.
	PreviewAddr string `yaml:"preview_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is json or text.
	LogFormat string `yaml:"log_format"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.NewAccess("locate", "user config directory", err)
	}
	return filepath.Join(dir, "mageflag.yaml"), nil
}

// Load reads the configuration from explicitPath if given, otherwise from
// $MAGEFLAG_CONFIG, otherwise from the default location. A missing file is
// not an error unless it was explicitly requested.
func Load(explicitPath string) (Config, error) {
	path := explicitPath
	required := path != ""

	if path == "" {
		path = os.Getenv(EnvVar)
		required = path != ""
	}
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return Config{}, nil
		}
		return Config{}, errors.NewAccess("read", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.NewIllegal("config", fmt.Sprintf("parsing %s: %v", path, err))
	}
	return cfg, nil
}

// Merge overlays flag values onto the file config: any non-empty flag value
// wins over the corresponding file value.
func Merge(file Config, flags Config) Config {
	out := file
	if flags.Palette != "" {
		out.Palette = flags.Palette
	}
	if flags.Store != "" {
		out.Store = flags.Store
	}
	if flags.VaultPath != "" {
		out.VaultPath = flags.VaultPath
	}
	if flags.PreviewAddr != "" {
		out.PreviewAddr = flags.PreviewAddr
	}
	if flags.LogLevel != "" {
		out.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		out.LogFormat = flags.LogFormat
	}
	return out
}
