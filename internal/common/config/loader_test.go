package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// ==========================
// Defaults
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  redis:
    address: localhost:6379
workers:
  export-report-docx:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "report-workers", cfg.App.Name)
	assert.Equal(t, "templates", cfg.Templates.Root)
	assert.Equal(t, "file", cfg.Templates.TradeConfigBackend)
	assert.Equal(t, int64(5486400), cfg.Reports.ImageWidthEMU)
	assert.Equal(t, "report-exports", cfg.Reports.ExportIndex)
	assert.Equal(t, time.Hour, GetDuration(cfg.Reports.DocumentTTL))
	assert.Equal(t, ":8080", cfg.HTTP.Address)

	w := GetWorkerConfig(cfg, "export-report-docx")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("REPORTS_TEST_ROOT", "/srv/report-templates")
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  redis:
    address: localhost:6379
templates:
  root: ${REPORTS_TEST_ROOT}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/report-templates", cfg.Templates.Root)
}

// ==========================
// Validation
// ==========================

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Camunda.BrokerAddress = "localhost:26500"
		cfg.Database.Redis.Address = "localhost:6379"
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "missing broker",
			mutate:  func(c *Config) { c.Camunda.BrokerAddress = "" },
			wantErr: "camunda.broker_address",
		},
		{
			name:    "missing redis",
			mutate:  func(c *Config) { c.Database.Redis.Address = "" },
			wantErr: "database.redis.address",
		},
		{
			name:    "postgres trade configs without postgres",
			mutate:  func(c *Config) { c.Templates.TradeConfigBackend = "postgres" },
			wantErr: "trade_config_backend=postgres",
		},
		{
			name:    "unknown trade config backend",
			mutate:  func(c *Config) { c.Templates.TradeConfigBackend = "s3" },
			wantErr: "must be file or postgres",
		},
		{
			name:    "audit without postgres",
			mutate:  func(c *Config) { c.Reports.AuditEnabled = true },
			wantErr: "audit_enabled",
		},
		{
			name:    "index without elasticsearch",
			mutate:  func(c *Config) { c.Reports.IndexEnabled = true },
			wantErr: "index_enabled",
		},
		{
			name: "index with url shorthand",
			mutate: func(c *Config) {
				c.Reports.IndexEnabled = true
				c.Database.Elasticsearch.URL = "http://es:9200"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"upload-report-template": {Enabled: false},
	}}
	assert.False(t, IsWorkerEnabled(cfg, "upload-report-template"))
	assert.True(t, IsWorkerEnabled(cfg, "export-report-docx"))
}
