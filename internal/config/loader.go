package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".stormbot"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// Path returns the path to the config file.
func Path() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("STORMBOT_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load reads the config file (if present), then overlays environment
// variables. A missing file is not an error; missing required secrets are
// caught later by the components that need them.
func Load() (*Config, error) {
	// Pull a local .env into the process environment first, if one exists.
	_ = godotenv.Load()

	cfg := Default()

	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through to env overlay
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("apply env overlay: %w", err)
	}

	return cfg, nil
}

// Overridable settings keys accepted by ApplyOverrides. Anything else in the
// settings table is ignored so a stray row cannot corrupt the config.
const (
	SettingPrefix      = "prefix"
	SettingName        = "name"
	SettingEnvironment = "environment"
)

// ApplyOverrides overlays datastore settings onto the config. Unknown keys
// are returned so the caller can log them.
func (c *Config) ApplyOverrides(settings map[string]string) (unknown []string) {
	for key, value := range settings {
		switch key {
		case SettingPrefix:
			c.Prefix = value
		case SettingName:
			c.Name = value
		case SettingEnvironment:
			c.Environment = value
		default:
			unknown = append(unknown, key)
		}
	}
	return unknown
}
