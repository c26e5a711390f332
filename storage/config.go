package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LoadConfig loads the configuration from config.json.
// If the file doesn't exist, it returns default configuration.
// If the file is corrupted, it returns an error.
// Missing fields (absent from JSON) are silently defaulted.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return loadConfigFile(path)
}

func loadConfigFile(path string) (*Config, error) {
	jsonBytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := &Config{}
	if err := json.Unmarshal(jsonBytes, config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	ApplyMissingDefaults(config, detectPresentKeys(jsonBytes))
	return config, nil
}

// SaveConfig saves the configuration to config.json atomically
func SaveConfig(config *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return AtomicWriteJSON(path, config)
}

// LoadValidConfig loads config.json and resets invalid fields to their
// defaults. Problems found are returned for logging; a missing or
// unreadable file yields defaults.
func LoadValidConfig() (*Config, []string) {
	config, err := LoadConfig()
	if err != nil {
		return DefaultConfig(), []string{err.Error()}
	}
	problems := ValidateConfig(config)
	if len(problems) > 0 {
		CorrectConfig(config)
	}
	return config, problems
}
