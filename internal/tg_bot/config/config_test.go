package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"
)

var configKeys = []string{
	"LOG_LEVEL", "LOG_FILE_NAME", "TOKEN_BOT", "BOT_DEBUG", "DB_DRIVER", "DB_DSN", "TIME_ZONE",
	"CHECK_INTERVAL_SEC", "SEND_RETRIES", "SEND_BACKOFF_MS", "UPDATE_WORKERS", "WEBHOOK_URL", "WEBHOOK_ADDR",
}

// clearEnv unsets every key the Config reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestNewConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_BOT", "token")

	cfg, err := NewConfig(missingFile(t))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.EnvLogsLevel)
	assert.Equal(t, "sqlite3", cfg.EnvDBDriver)
	assert.Equal(t, "Europe/Moscow", cfg.EnvTimeZone)
	assert.Equal(t, time.Minute, cfg.CheckInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.SendBackoff())
	assert.Equal(t, 3, cfg.EnvSendRetries)
	assert.Equal(t, 4, cfg.EnvUpdateWorkers)
	assert.Empty(t, cfg.EnvWebhookURL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestNewConfig_EnvFile(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "bot.env")
	require.NoError(t, os.WriteFile(file, []byte("TOKEN_BOT=from-file\nDB_DRIVER=mysql\nCHECK_INTERVAL_SEC=5\n"), 0o600))
	t.Setenv("CHECK_INTERVAL_SEC", "7")

	cfg, err := NewConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.EnvBotToken)
	assert.Equal(t, "mysql", cfg.EnvDBDriver)
	assert.Equal(t, 7*time.Second, cfg.CheckInterval(), "process environment wins over the file")
}

func TestNewConfig_MissingToken(t *testing.T) {
	clearEnv(t)
	_, err := NewConfig(missingFile(t))
	assert.Error(t, err)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "driver", key: "DB_DRIVER", value: "postgres"},
		{name: "interval", key: "CHECK_INTERVAL_SEC", value: "0"},
		{name: "workers", key: "UPDATE_WORKERS", value: "-1"},
		{name: "retries", key: "SEND_RETRIES", value: "-2"},
		{name: "not a number", key: "SEND_RETRIES", value: "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TOKEN_BOT", "token")
			t.Setenv(tt.key, tt.value)

			_, err := NewConfig(missingFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLocation_Unknown(t *testing.T) {
	cfg := &Config{EnvTimeZone: "Mars/Olympus"}
	_, err := cfg.Location()
	assert.Error(t, err)
}
