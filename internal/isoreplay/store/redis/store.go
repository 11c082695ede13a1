// Package redis stores histories in Redis
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/wrale/isoreplay/internal/isoreplay/history"
	"github.com/wrale/isoreplay/internal/isoreplay/store"
)

// DefaultPrefix namespaces every key written by the store
const DefaultPrefix = "isoreplay"

// Store implements store.Store using Redis
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore creates a new Redis-backed result store
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) resultKey(name string) string {
	return fmt.Sprintf("%s:result:%s", s.prefix, name)
}

func (s *Store) indexKey() string {
	return s.prefix + ":results"
}

// Save implements store.Store
func (s *Store) Save(ctx context.Context, name string, histories []history.History) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}

	data, err := store.Encode(histories)
	if err != nil {
		return fmt.Errorf("error encoding histories: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.resultKey(name), data, 0)
	pipe.SAdd(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error saving result %s: %w", name, err)
	}
	return nil
}

// Load implements store.Store
func (s *Store) Load(ctx context.Context, name string) (json.RawMessage, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.resultKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading result %s: %w", name, err)
	}
	return json.RawMessage(data), nil
}

// List implements store.Store
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("error listing results: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
