package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".roipatch"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .roipatch in the current directory
// 3. Look for .roipatch in the user's home directory
// 4. Look for .roipatch in the XDG config directory (~/.config/roipatch)
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	for _, path := range configSearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configSearchPaths returns the implicit configuration file locations in
// lookup order.
func configSearchPaths() []string {
	paths := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), DefaultConfigFile))
}

// Load finds and loads the configuration file and applies it to a new
// default Config. An explicit configPath that does not exist is an error;
// a missing implicit file is not.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = configPath

	path := FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return cfg, nil
	}

	f, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFile(f)
	return cfg, nil
}
