package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrale/isoreplay/internal/isoreplay/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "isoreplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "SERIALIZABLE", cfg.Replay.Isolation)
	assert.Equal(t, "naive", cfg.Replay.Classifier)
	assert.Equal(t, "file", cfg.Store.Kind)
	assert.Equal(t, "results", cfg.Replay.ResultsDir)
	assert.Equal(t, time.Second, cfg.Database.RetryDelay)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  host: mariadb
  port: 9999
  name: testDB
  user: root
  password: "123"
  retryDelay: 250ms
replay:
  isolation: repeatable read
  classifier: keyword
store:
  kind: redis
  redisAddr: redis:6379
`)
	t.Setenv("ISOREPLAY_DATABASE_PASSWORD", "from-env")
	t.Setenv("ISOREPLAY_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, database.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "mariadb", cfg.Database.Host)
	assert.Equal(t, 9999, cfg.Database.Port)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.RetryDelay)
	assert.Equal(t, "repeatable read", cfg.Replay.Isolation)
	assert.Equal(t, "keyword", cfg.Replay.Classifier)
	assert.Equal(t, "redis", cfg.Store.Kind)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "debug", cfg.Log.Level)

	params := cfg.Database.Params()
	assert.Equal(t, "mysql", params.Dialect())
	assert.Equal(t, "testDB", params.Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "driver", body: "database:\n  driver: oracle\n"},
		{name: "port", body: "database:\n  port: 70000\n"},
		{name: "isolation", body: "replay:\n  isolation: chaos\n"},
		{name: "classifier", body: "replay:\n  classifier: regex\n"},
		{name: "store", body: "store:\n  kind: s3\n"},
		{name: "server_port", body: "server:\n  port: 0\n"},
		{name: "rate_limit", body: "server:\n  replayRateLimit: -1\n"},
		{name: "rate_period", body: "server:\n  replayRateLimit: 5\n  replayRatePeriod: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_SQLiteWithoutPort(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  driver: sqlite3\n  name: replay.db\n  port: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, "replay.db", cfg.Database.Name)
}
