// internal/workers/reporting/upload-report-template/config.go
package uploadreporttemplate

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TemplatesRoot string        `mapstructure:"templates_root"`
	MaxSizeBytes  int           `mapstructure:"max_size_bytes"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 2,
		Timeout:       30 * time.Second,
		TemplatesRoot: "templates",
		MaxSizeBytes:  20 << 20,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.TemplatesRoot == "" {
		return fmt.Errorf("templates_root is required")
	}
	if c.MaxSizeBytes <= 0 {
		return fmt.Errorf("max_size_bytes must be positive")
	}
	return nil
}
