// Package kv is the durable string key/value store the client side keeps its
// session, cart and preferences in.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well known keys.
const (
	KeyAuthToken = "auth.token"
	KeyAuthUser  = "auth.user"
	KeyCartItems = "cart.items"
	KeyTheme     = "theme.preference"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Entry is one key/value pair of a Put.
type Entry struct {
	Key   string
	Value string
}

// JSONEntry marshals v into an Entry for key.
func JSONEntry(key string, v any) (Entry, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal %s: %w", key, err)
	}

	return Entry{Key: key, Value: string(data)}, nil
}

// Storage is a string to string store. Put and Delete apply all of their
// arguments atomically: a reader never observes only some of them.
type Storage interface {
	// Get returns the value of key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, entries ...Entry) error
	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Config selects and configures a Storage implementation.
type Config struct {
	// Driver is "memory", "file" or "redis".
	Driver string             `env:"DRIVER" default:"file"`
	File   FileStorageConfig  `envPrefix:"FILE_"`
	Redis  RedisStorageConfig `envPrefix:"REDIS_"`
}

// Open creates the Storage selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStorage(), nil
	case "file":
		return NewFileStorage(ctx, cfg.File)
	case "redis":
		return NewRedisStorage(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
