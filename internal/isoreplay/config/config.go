// Package config provides configuration management for isoreplay
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wrale/isoreplay/internal/isoreplay/database"
)

// EnvPrefix prefixes every environment override, e.g. ISOREPLAY_DATABASE_HOST
const EnvPrefix = "ISOREPLAY"

// Config holds all configuration for isoreplay
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Client   ClientConfig   `mapstructure:"client"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds the connection settings of the database under test
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	// DSN overrides every other connection field when set
	DSN            string        `mapstructure:"dsn"`
	ConnectRetries int           `mapstructure:"connectRetries"`
	RetryDelay     time.Duration `mapstructure:"retryDelay"`
}

// ReplayConfig holds replay settings
type ReplayConfig struct {
	// Isolation is the level every replayed transaction begins with
	Isolation string `mapstructure:"isolation"`
	// Classifier selects read-query detection: naive or keyword
	Classifier   string `mapstructure:"classifier"`
	TestCasesDir string `mapstructure:"testCasesDir"`
	ResultsDir   string `mapstructure:"resultsDir"`
}

// StoreConfig selects where histories are persisted
type StoreConfig struct {
	// Kind is file or redis
	Kind          string `mapstructure:"kind"`
	RedisAddr     string `mapstructure:"redisAddr"`
	RedisPassword string `mapstructure:"redisPassword"`
	RedisDB       int    `mapstructure:"redisDB"`
	RedisPrefix   string `mapstructure:"redisPrefix"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`
	// ReplayRateLimit caps replays per client and ReplayRatePeriod; 0 disables
	ReplayRateLimit  int           `mapstructure:"replayRateLimit"`
	ReplayRatePeriod time.Duration `mapstructure:"replayRatePeriod"`
}

// ClientConfig points the submit and results commands at a server
type ClientConfig struct {
	Server  string        `mapstructure:"server"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Params converts the database section for the database package
func (d DatabaseConfig) Params() database.Params {
	return database.Params{
		Driver:   d.Driver,
		Host:     d.Host,
		Port:     d.Port,
		Name:     d.Name,
		User:     d.User,
		Password: d.Password,
		SSLMode:  d.SSLMode,
		DSN:      d.DSN,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", database.DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "testdb")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.connectRetries", 5)
	v.SetDefault("database.retryDelay", time.Second)

	v.SetDefault("replay.isolation", "SERIALIZABLE")
	v.SetDefault("replay.classifier", "naive")
	v.SetDefault("replay.testCasesDir", "testcases")
	v.SetDefault("replay.resultsDir", "results")

	v.SetDefault("store.kind", "file")
	v.SetDefault("store.redisAddr", "localhost:6379")
	v.SetDefault("store.redisPassword", "")
	v.SetDefault("store.redisDB", 0)
	v.SetDefault("store.redisPrefix", "isoreplay")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Minute)
	v.SetDefault("server.idleTimeout", time.Minute)
	v.SetDefault("server.replayRateLimit", 0)
	v.SetDefault("server.replayRatePeriod", time.Minute)

	v.SetDefault("client.server", "http://127.0.0.1:8080")
	v.SetDefault("client.timeout", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the YAML file at path (optional) and overlays ISOREPLAY_*
// environment variables on top of it
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-provided viper instance, so flags bound to
// it take precedence over file and environment
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, cfg.validate()
}
