package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// DefaultSyncURL is the remote receiver the ledger is pushed to unless overridden.
const DefaultSyncURL = "https://script.google.com/macros/s/AKfycbxO_qN24tzT3Wz9dLeoRAnqz8IX6Hla9_oK9P8IauZxwMPNnd26osy25zyQhuyO6qAB/exec"

const (
	BackendFile    = "file"
	BackendMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Sync     SyncConfig
	Sheets   SheetsConfig
	Schedule ScheduleConfig
	MongoDB  MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// StoreConfig selects where the ledger document lives.
type StoreConfig struct {
	Backend string
	Path    string
}

// SyncConfig configures the remote push.
type SyncConfig struct {
	URL     string
	Timeout time.Duration
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Publishing is disabled when either field is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether spreadsheet publishing is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ScheduleConfig holds cron expressions for background jobs. Empty disables a job.
type ScheduleConfig struct {
	SyncCron    string
	PublishCron string
	Timezone    string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("SYNC_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("SYNC_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: os.Getenv("LOG_LEVEL"),
		},
		Store: StoreConfig{
			Backend: getenvWithDefault("STORE_BACKEND", BackendFile),
			Path:    getenvWithDefault("STORE_PATH", "data/warehouse.json"),
		},
		Sync: SyncConfig{
			URL:     getenvWithDefault("SYNC_URL", DefaultSyncURL),
			Timeout: timeout,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Schedule: ScheduleConfig{
			SyncCron:    os.Getenv("SYNC_CRON_SCHEDULE"),
			PublishCron: os.Getenv("PUBLISH_CRON_SCHEDULE"),
			Timezone:    getenvWithDefault("TIMEZONE", "Europe/Rome"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "warehouse"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			return errors.New("STORE_PATH must be provided for the file backend")
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("STORE_BACKEND %q is not supported", c.Store.Backend)
	}

	if c.Sync.Timeout < 0 {
		return errors.New("SYNC_TIMEOUT must not be negative")
	}

	if c.Schedule.PublishCron != "" && !c.Sheets.Enabled() {
		return errors.New("PUBLISH_CRON_SCHEDULE requires GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID")
	}

	if c.Schedule.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Schedule.Timezone, err)
	}

	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
