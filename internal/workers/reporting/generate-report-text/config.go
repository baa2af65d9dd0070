// internal/workers/reporting/generate-report-text/config.go
package generatereporttext

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	GenAIBaseURL  string        `mapstructure:"genai_base_url"`
	GenAIAPIKey   string        `mapstructure:"genai_api_key"`
	MaxRetries    int           `mapstructure:"max_retries"`
	// RetryBackoff is the first retry delay; it doubles on every further attempt.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       90 * time.Second,
		MaxRetries:    2,
		RetryBackoff:  100 * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.GenAIBaseURL == "" {
		return fmt.Errorf("genai_base_url is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	return nil
}
