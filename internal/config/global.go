package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bib"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// BibPathEnv overrides bib_path when set.
	BibPathEnv = "BIB_PATH"
)

// ErrBibPathNotConfigured is returned when bib_path is not set.
var ErrBibPathNotConfigured = errors.New("bib_path not configured")

// ErrBibPathNotExist is returned when the configured bib_path doesn't exist.
var ErrBibPathNotExist = errors.New("bib_path does not exist")

// configCache caches the loaded global config.
var configCache *Config

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bib/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// Load loads the global configuration file on top of the defaults.
// A missing file is not an error. BIB_PATH overrides bib_path.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}
	cfg, err := LoadFrom(GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	configCache = cfg
	return cfg, nil
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	if env := os.Getenv(BibPathEnv); env != "" {
		cfg.BibPath = env
	}
	cfg.BibPath = ExpandPath(cfg.BibPath)
	cfg.PDFDir = ExpandPath(cfg.PDFDir)
	cfg.TmpDir = ExpandPath(cfg.TmpDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid global config %s: %w", path, err)
	}
	return cfg, nil
}

// ResetCache clears the cached global config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if path == "" {
		return fmt.Errorf("no config path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if path == GlobalConfigPath() {
		configCache = nil
	}
	return nil
}

// HelpfulConfigMessage returns a helpful message when bib_path is not configured.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No bibliography file configured.

Tip: Create %s to set one:
  mkdir -p %s
  echo 'bib_path: /path/to/library.bib' > %s

or export %s=/path/to/library.bib (a .env file works too).`,
		configPath,
		filepath.Dir(configPath),
		configPath,
		BibPathEnv)
}
