// Package config provides unified configuration for the caesarion client.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (CAESARION_ prefix)
//  4. Validation
package config

import "time"

// Config holds all configuration for the caesarion client.
type Config struct {
	Backend       BackendConfig       `yaml:"backend"`
	Storage       StorageConfig       `yaml:"storage"`
	Upload        UploadConfig        `yaml:"upload"`
	Observability ObservabilityConfig `yaml:"observability"`
	Debug         DebugConfig         `yaml:"debug"`
}

// DebugConfig holds diagnostic logging settings. The CAESARION_DEBUG and
// CAESARION_LOG_LEVEL environment variables take precedence over these.
type DebugConfig struct {
	Categories string `yaml:"categories"` // comma-separated, or "all"
	Level      string `yaml:"level"`      // "debug", "trace", etc.
}

// BackendConfig holds connection settings for the sandbox backend.
type BackendConfig struct {
	BaseURL     string        `yaml:"base_url"`     // required
	ChatPath    string        `yaml:"chat_path"`    // default: "/api/chat"
	InitTimeout time.Duration `yaml:"init_timeout"` // sandbox initialize call, default: 60s
}

// StorageConfig holds local persistence settings for session state and
// transcripts.
type StorageConfig struct {
	Type string `yaml:"type"` // "memory" or "sqlite", default: "sqlite"
	Path string `yaml:"path"` // sqlite database file, default: ~/.caesarion/caesarion.db
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	ResetDelay time.Duration `yaml:"reset_delay"` // success display window, default: 1s
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: "localhost:9464"
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			ChatPath:    "/api/chat",
			InitTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Type: "sqlite",
		},
		Upload: UploadConfig{
			ResetDelay: time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: false,
				Addr:    "localhost:9464",
				Path:    "/metrics",
			},
		},
	}
}
