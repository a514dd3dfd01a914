package main

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestRootCmd_Wiring(t *testing.T) {
	cmd := newRootCmd()
	flag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, flag)
	assert.Equal(t, "bot.env", flag.DefValue)

	migrate, _, err := cmd.Find([]string{"migrate"})
	require.NoError(t, err)
	assert.Equal(t, "migrate", migrate.Name())
}

func TestMigrateCmd_CreatesSchema(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TOKEN_BOT", "test-token")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_DSN", filepath.Join(dir, "bot.db"))
	t.Setenv("LOG_FILE_NAME", filepath.Join(dir, "bot.log"))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(dir, "bot.db"))
}

func TestMigrateCmd_MissingToken(t *testing.T) {
	t.Setenv("TOKEN_BOT", "")
	require.NoError(t, os.Unsetenv("TOKEN_BOT"))
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, cmd.Execute())
}
