package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of the service
type Config struct {
	// "dev" or "prod"
	LogMode string `yaml:"log_mode"`
	// Listen address of the HTTP API
	HTTPAddr string `yaml:"http_addr"`
	// "sqlite" or "postgres"
	DBType string `yaml:"db_type"`
	// SQLite database file
	DBPath string `yaml:"db_path"`
	// Postgres connection string
	DatabaseURL string `yaml:"database_url"`
	// Telegram bot token; the bot is disabled when empty
	TelegramToken string `yaml:"telegram_token"`
	// Whether the daily reminder job runs
	SchedulerEnabled bool `yaml:"scheduler_enabled"`
	// Hour of day (0-23) for streak reminders
	ReminderHour int `yaml:"reminder_hour"`
	// IANA zone used to cut calendar days
	Timezone string `yaml:"timezone"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		LogMode:          "dev",
		HTTPAddr:         ":8080",
		DBType:           "sqlite",
		DBPath:           "data/ieltsprep.db",
		SchedulerEnabled: true,
		ReminderHour:     18,
		Timezone:         "UTC",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (a .env file in the working directory is loaded first).
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.LogMode = str("LOG_MODE", cfg.LogMode)
	cfg.HTTPAddr = str("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DBType = strings.ToLower(str("DB_TYPE", cfg.DBType))
	cfg.DBPath = str("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = str("DATABASE_URL", cfg.DatabaseURL)
	cfg.TelegramToken = str("TELEGRAM_BOT_TOKEN", cfg.TelegramToken)
	cfg.Timezone = str("TIMEZONE", cfg.Timezone)

	if v := strings.TrimSpace(os.Getenv("ENABLE_SCHEDULER")); v != "" {
		cfg.SchedulerEnabled = v != "false"
	}
	if v := strings.TrimSpace(os.Getenv("REMINDER_HOUR")); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REMINDER_HOUR %q: %w", v, err)
		}
		cfg.ReminderHour = h
	}
	return nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH must be set for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23, got %d", c.ReminderHour)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func str(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
