package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/shopzone/internal/infra/logging"
)

// RedisStorageConfig holds configuration for RedisStorage.
type RedisStorageConfig struct {
	Addr     string `env:"ADDR" default:"localhost:6379"`
	Password string `env:"PASSWORD" default:""`
	DB       int    `env:"DB" default:"0"`
	// Namespace is prepended to every key as "<namespace>:".
	Namespace string `env:"NAMESPACE" default:"shopzone"`
	// TTL expires idle state; zero keeps it forever.
	TTL time.Duration `env:"TTL" default:"0s"`
}

// RedisStorage keeps pairs as plain Redis strings. Multi-key writes run in
// a MULTI/EXEC transaction.
type RedisStorage struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
	ownClient bool
	log       logging.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage connects to cfg.Addr and pings it.
func NewRedisStorage(ctx context.Context, cfg RedisStorageConfig) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping: %w", err)
	}

	s := NewRedisStorageWithClient(client, cfg)
	s.ownClient = true

	return s, nil
}

// NewRedisStorageWithClient uses an existing client. Close leaves it open.
func NewRedisStorageWithClient(client redis.UniversalClient, cfg RedisStorageConfig) *RedisStorage {
	return &RedisStorage{
		client:    client,
		namespace: cfg.Namespace,
		ttl:       cfg.TTL,
		log:       logging.GetLogger("repo.kv.redis").With("namespace", cfg.Namespace),
	}
}

func (s *RedisStorage) key(key string) string {
	if s.namespace == "" {
		return key
	}

	return s.namespace + ":" + key
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return value, true, nil
}

func (s *RedisStorage) Put(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, s.key(e.Key), e.Value, s.ttl)
		}

		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "put failed", "error", err)

		return fmt.Errorf("redis put: %w", err)
	}

	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, s.key(key))
	}

	// DEL with several keys is atomic on its own.
	if err := s.client.Del(ctx, namespaced...).Err(); err != nil {
		s.log.ErrorContext(ctx, "delete failed", "error", err)

		return fmt.Errorf("redis delete: %w", err)
	}

	return nil
}

func (s *RedisStorage) Close() error {
	if !s.ownClient {
		return nil
	}

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}

	return nil
}
