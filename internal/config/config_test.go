package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "LOG_LEVEL", "STORE_BACKEND", "STORE_PATH", "SYNC_URL", "SYNC_TIMEOUT",
		"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
		"SYNC_CRON_SCHEDULE", "PUBLISH_CRON_SCHEDULE", "TIMEZONE",
		"MONGODB_URI", "MONGODB_DB_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "missing.env")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "data/warehouse.json", cfg.Store.Path)
	assert.Equal(t, DefaultSyncURL, cfg.Sync.URL)
	assert.Zero(t, cfg.Sync.Timeout)
	assert.False(t, cfg.Sheets.Enabled())
	assert.Equal(t, "Europe/Rome", cfg.Location().String())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "APP_PORT=9090\nSTORE_BACKEND=mongodb\nMONGODB_URI=mongodb://localhost:27017\nSYNC_TIMEOUT=15s\nTIMEZONE=UTC\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv never overrides variables already set, even to an empty value.
	for _, key := range []string{"APP_PORT", "STORE_BACKEND", "MONGODB_URI", "SYNC_TIMEOUT", "TIMEZONE"} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, BackendMongoDB, cfg.Store.Backend)
	assert.Equal(t, "warehouse", cfg.MongoDB.DBName)
	assert.Equal(t, 15*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYNC_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Store:    StoreConfig{Backend: BackendFile, Path: "ledger.json"},
			Schedule: ScheduleConfig{Timezone: "UTC"},
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"unknown backend":   func(c *Config) { c.Store.Backend = "sqlite" },
		"empty path":        func(c *Config) { c.Store.Path = "" },
		"mongo without uri": func(c *Config) { c.Store.Backend = BackendMongoDB; c.MongoDB.DBName = "w" },
		"negative timeout":  func(c *Config) { c.Sync.Timeout = -time.Second },
		"publish no sheets": func(c *Config) { c.Schedule.PublishCron = "@hourly" },
		"bad timezone":      func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" },
		"no port":           func(c *Config) { c.Server.Port = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
