package config

import (
	"fmt"

	"github.com/wrale/isoreplay/internal/isoreplay/database"
)

func (c *Config) validate() error {
	switch c.Database.Driver {
	case database.DriverPostgres, database.DriverPgx, database.DriverMySQL, database.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" && c.Database.Driver != database.DriverSQLite {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("invalid connect retries: %d", c.Database.ConnectRetries)
	}
	if _, err := database.ParseIsolationLevel(c.Replay.Isolation); err != nil {
		return err
	}
	if c.Replay.Classifier != "naive" && c.Replay.Classifier != "keyword" {
		return fmt.Errorf("invalid query classifier: %q", c.Replay.Classifier)
	}
	switch c.Store.Kind {
	case "file":
		if c.Replay.ResultsDir == "" {
			return fmt.Errorf("results directory is required for the file store")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid store kind: %q", c.Store.Kind)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReplayRateLimit < 0 {
		return fmt.Errorf("invalid replay rate limit: %d", c.Server.ReplayRateLimit)
	}
	if c.Server.ReplayRateLimit > 0 && c.Server.ReplayRatePeriod <= 0 {
		return fmt.Errorf("invalid replay rate period: %s", c.Server.ReplayRatePeriod)
	}
	return nil
}
