// internal/workers/reporting/select-report-template/config.go
package selectreporttemplate

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TemplatesRoot string        `mapstructure:"templates_root"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 20,
		Timeout:       5 * time.Second,
		TemplatesRoot: "templates",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.TemplatesRoot == "" {
		return fmt.Errorf("templates_root is required")
	}
	return nil
}
