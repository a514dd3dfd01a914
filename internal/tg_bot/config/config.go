package config

import (
	"errors"
	"fmt"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"io/fs"
	"time"
)

// DefaultEnvFile is the env file loaded when no other is given.
const DefaultEnvFile = "bot.env"

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel        string `env:"LOG_LEVEL" envDefault:"info"`              // Log level for the application (e.g., debug, info)
	EnvLogFileName      string `env:"LOG_FILE_NAME" envDefault:"remindBot.log"` // File's name for log
	EnvBotToken         string `env:"TOKEN_BOT,required"`                       // Telegram Bot Token
	EnvBotDebug         bool   `env:"BOT_DEBUG"`                                // Verbose tgbotapi logging
	EnvDBDriver         string `env:"DB_DRIVER" envDefault:"sqlite3"`           // sqlite3 or mysql
	EnvDBDSN            string `env:"DB_DSN" envDefault:"reminders.db"`         // Driver specific data source name
	EnvTimeZone         string `env:"TIME_ZONE" envDefault:"Europe/Moscow"`     // The single reference zone for dates
	EnvCheckIntervalSec int    `env:"CHECK_INTERVAL_SEC" envDefault:"60"`       // Scheduler scan interval
	EnvSendRetries      int    `env:"SEND_RETRIES" envDefault:"3"`              // Retries for a failed notification
	EnvSendBackoffMs    int    `env:"SEND_BACKOFF_MS" envDefault:"500"`         // Initial retry backoff
	EnvUpdateWorkers    int    `env:"UPDATE_WORKERS" envDefault:"4"`            // Parallel update handlers
	EnvWebhookURL       string `env:"WEBHOOK_URL"`                              // Empty means long polling
	EnvWebhookAddr      string `env:"WEBHOOK_ADDR" envDefault:":8443"`          // Listen address of the webhook server
}

// NewConfig loads envFile into the environment (a missing file is fine,
// real environment variables win) and parses the Config from it.
func NewConfig(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
		logrus.Infof("Env file %s not found, using process environment", envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.EnvDBDriver {
	case "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected 'sqlite3' or 'mysql')", c.EnvDBDriver)
	}
	if c.EnvCheckIntervalSec <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_SEC must be positive, got %d", c.EnvCheckIntervalSec)
	}
	if c.EnvUpdateWorkers <= 0 {
		return fmt.Errorf("UPDATE_WORKERS must be positive, got %d", c.EnvUpdateWorkers)
	}
	if c.EnvSendRetries < 0 {
		return fmt.Errorf("SEND_RETRIES can't be negative, got %d", c.EnvSendRetries)
	}
	return nil
}

// Location resolves the reference time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.EnvTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.EnvTimeZone, err)
	}
	return loc, nil
}

// CheckInterval is the scheduler scan interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.EnvCheckIntervalSec) * time.Second
}

// SendBackoff is the initial delay between notification retries.
func (c *Config) SendBackoff() time.Duration {
	return time.Duration(c.EnvSendBackoffMs) * time.Millisecond
}
