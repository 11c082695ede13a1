package cmd

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wrale/isoreplay/internal/isoreplay/config"
	"github.com/wrale/isoreplay/internal/isoreplay/database"
	"github.com/wrale/isoreplay/internal/isoreplay/ratelimit"
	ratelimitredis "github.com/wrale/isoreplay/internal/isoreplay/ratelimit/redis"
	"github.com/wrale/isoreplay/internal/isoreplay/replay"
	"github.com/wrale/isoreplay/internal/isoreplay/schema"
	"github.com/wrale/isoreplay/internal/isoreplay/session"
	"github.com/wrale/isoreplay/internal/isoreplay/store"
	"github.com/wrale/isoreplay/internal/isoreplay/store/file"
	redisstore "github.com/wrale/isoreplay/internal/isoreplay/store/redis"
)

// app holds the components wired from one configuration
type app struct {
	db        *sql.DB
	redis     *goredis.Client
	isolation sql.IsolationLevel
	engine    *replay.Engine
	schema    *schema.Manager
	store     store.Store
	logger    zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	isolation, err := database.ParseIsolationLevel(cfg.Replay.Isolation)
	if err != nil {
		return nil, err
	}
	classifier, ok := replay.ClassifierByName(cfg.Replay.Classifier)
	if !ok {
		return nil, fmt.Errorf("unknown classifier %q", cfg.Replay.Classifier)
	}

	params := cfg.Database.Params()
	dsn, err := params.ConnString()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, params.Driver, dsn, cfg.Database.ConnectRetries, cfg.Database.RetryDelay, logger)
	if err != nil {
		return nil, err
	}

	a := &app{db: db, isolation: isolation, logger: logger}

	a.schema, err = schema.NewManager(db, params.Dialect(), logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.openStore(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	connector := session.NewSQLConnector(db, database.TxOptions{Isolation: isolation})
	a.engine = replay.New(connector,
		replay.WithLogger(logger),
		replay.WithClassifier(classifier),
	)

	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Store.Kind {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("error connecting to redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		a.redis = client
		a.store = redisstore.NewStore(client, cfg.Store.RedisPrefix)
	default:
		a.store = file.NewStore(cfg.Replay.ResultsDir)
	}
	return nil
}

// limitStore shares the redis connection of the result store when there is
// one, so limits hold across several servers
func (a *app) limitStore(cfg *config.Config) ratelimit.Store {
	if a.redis != nil {
		return ratelimitredis.NewStore(a.redis, cfg.Store.RedisPrefix)
	}
	return ratelimit.NewMemoryStore()
}

// prepare provisions the tables and applies the global isolation level
// where the dialect needs it
func (a *app) prepare(ctx context.Context) error {
	if err := a.schema.SetGlobalIsolation(ctx, a.isolation); err != nil {
		return fmt.Errorf("error setting isolation level: %w", err)
	}
	return a.schema.Setup(ctx)
}

// Close releases the database and store connections
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("error closing redis client")
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("error closing database")
	}
}
