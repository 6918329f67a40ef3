package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, CAESARION_CONFIG env, ./config.yaml,
//     ~/.caesarion/config.yaml)
//  3. Environment variable overrides
//  4. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CAESARION_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. ~/.caesarion/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("CAESARION_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{"config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".caesarion", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps CAESARION_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAESARION_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("CAESARION_CHAT_PATH"); v != "" {
		cfg.Backend.ChatPath = v
	}
	if v := os.Getenv("CAESARION_INIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.InitTimeout = d
		}
	}
	if v := os.Getenv("CAESARION_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("CAESARION_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("CAESARION_METRICS_ADDR"); v != "" {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Addr = v
	}
}

// defaultStoragePath places the sqlite database under the user's home
// directory, falling back to the working directory when home is unknown.
func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "caesarion.db"
	}
	return filepath.Join(home, ".caesarion", "caesarion.db")
}
