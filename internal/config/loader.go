package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "TRAINPI_"

// Load builds a Config by layering defaults, the YAML file and environment
// variables, then validates it.
//
// An empty path means DefaultConfigFilename. The default file may be absent,
// any other path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = DefaultConfigFilename
	}

	path = filepath.Clean(path)
	explicit := path != DefaultConfigFilename

	switch _, err := os.Stat(path); {
	case err == nil:
		if err = k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Defaults and environment only.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// TRAINPI_DEFAULT_SPEED -> default_speed.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
