package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// backend.base_url is required.
	if c.Backend.BaseURL == "" {
		errs = append(errs, fmt.Errorf("backend.base_url is required"))
	} else if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("backend.base_url must start with http:// or https://, got %q", c.Backend.BaseURL))
	}

	if !strings.HasPrefix(c.Backend.ChatPath, "/") {
		errs = append(errs, fmt.Errorf("backend.chat_path must start with \"/\", got %q", c.Backend.ChatPath))
	}

	if c.Backend.InitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.init_timeout must be > 0, got %s", c.Backend.InitTimeout))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "sqlite":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"sqlite\", got %q", c.Storage.Type))
	}

	// If storage.type is "sqlite", a database path is required.
	if c.Storage.Type == "sqlite" && c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required when storage.type is \"sqlite\""))
	}

	if c.Upload.ResetDelay < 0 {
		errs = append(errs, fmt.Errorf("upload.reset_delay must be >= 0, got %s", c.Upload.ResetDelay))
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Addr == "" {
		errs = append(errs, fmt.Errorf("observability.metrics.addr is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}
