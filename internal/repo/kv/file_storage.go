package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/util/flock"
)

// FileStorageConfig holds configuration for FileStorage.
type FileStorageConfig struct {
	Path string `env:"PATH" default:"var/shopzone/storage.json"`
}

// FileStorage keeps every pair in one JSON object on disk. Each operation
// reads the file under an advisory lock, so several processes can share it.
// Writes replace the file with a rename.
type FileStorage struct {
	path string
	log  logging.Logger
}

var _ Storage = (*FileStorage)(nil)

func NewFileStorage(ctx context.Context, cfg FileStorageConfig) (*FileStorage, error) {
	s := &FileStorage{
		path: cfg.Path,
		log:  logging.GetLogger("repo.kv.file").With("path", cfg.Path),
	}

	release, err := flock.Lock(s.path, false)
	if err != nil {
		return nil, fmt.Errorf("open file storage: %w", err)
	}
	release()

	s.log.DebugContext(ctx, "file storage opened")

	return s, nil
}

// load reads the document. A missing file is empty; an unreadable one is
// logged and treated as empty.
func (s *FileStorage) load(ctx context.Context) (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	} else if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		s.log.WarnContext(ctx, "storage document corrupted, starting empty", "error", err)

		return make(map[string]string), nil
	}

	return values, nil
}

func (s *FileStorage) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := flock.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

func (s *FileStorage) update(ctx context.Context, fn func(values map[string]string) bool) (err error) {
	release, err := flock.Lock(s.path, true)
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	defer release()

	values, err := s.load(ctx)
	if err != nil {
		return err
	}

	if !fn(values) {
		return nil
	}

	return s.save(values)
}

func (s *FileStorage) Get(ctx context.Context, key string) (string, bool, error) {
	release, err := flock.Lock(s.path, false)
	if err != nil {
		return "", false, fmt.Errorf("lock: %w", err)
	}
	defer release()

	values, err := s.load(ctx)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}

	value, ok := values[key]

	return value, ok, nil
}

func (s *FileStorage) Put(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	err := s.update(ctx, func(values map[string]string) bool {
		for _, e := range entries {
			values[e.Key] = e.Value
		}

		return true
	})
	if err != nil {
		s.log.ErrorContext(ctx, "put failed", "error", err)

		return fmt.Errorf("put: %w", err)
	}

	return nil
}

func (s *FileStorage) Delete(ctx context.Context, keys ...string) error {
	err := s.update(ctx, func(values map[string]string) bool {
		changed := false

		for _, key := range keys {
			if _, ok := values[key]; ok {
				delete(values, key)

				changed = true
			}
		}

		return changed
	})
	if err != nil {
		s.log.ErrorContext(ctx, "delete failed", "error", err)

		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

func (s *FileStorage) Close() error {
	return nil
}
