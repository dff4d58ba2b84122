package blob

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mkrupp/shopzone/internal/domain"
)

// MemoryRepository keeps blobs in a map. Locks are process local.
type MemoryRepository struct {
	mu    sync.RWMutex
	blobs map[domain.BlobID][]byte
	locks sync.Map // domain.BlobID -> *sync.RWMutex
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{blobs: make(map[domain.BlobID][]byte)}
}

// MemoryBlobRepositoryFactory returns a factory that hands out a fresh
// MemoryRepository per call.
func MemoryBlobRepositoryFactory() RepositoryFactory {
	return func(context.Context, string, string) (Repository, error) {
		return NewMemoryRepository(), nil
	}
}

func (m *MemoryRepository) Lock(_ context.Context, id domain.BlobID, exclusive bool) (func(), error) {
	v, _ := m.locks.LoadOrStore(id, new(sync.RWMutex))
	lock := v.(*sync.RWMutex) //nolint:forcetypeassert

	if exclusive {
		lock.Lock()

		return lock.Unlock, nil
	}

	lock.RLock()

	return lock.RUnlock, nil
}

func (m *MemoryRepository) Exists(_ context.Context, id domain.BlobID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.blobs[id]

	return ok
}

func (m *MemoryRepository) Store(_ context.Context, blob *domain.Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[blob.ID] = append([]byte(nil), blob.Body...)

	return nil
}

func (m *MemoryRepository) Fetch(_ context.Context, id domain.BlobID) (*domain.Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("fetch blob %s: %w", id, domain.ErrBlobNotFound)
	}

	return domain.NewBlob(id, append([]byte(nil), body...)), nil
}

func (m *MemoryRepository) Delete(_ context.Context, id domain.BlobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[id]; !ok {
		return fmt.Errorf("delete blob %s: %w", id, domain.ErrBlobNotFound)
	}

	delete(m.blobs, id)

	return nil
}

func (m *MemoryRepository) DeleteVariants(_ context.Context, id domain.BlobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := string(id) + "-w"
	for key := range m.blobs {
		if strings.HasPrefix(string(key), prefix) {
			delete(m.blobs, key)
		}
	}

	return nil
}
