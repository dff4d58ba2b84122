package blob

import (
	"context"

	"github.com/mkrupp/shopzone/internal/domain"
)

// Repository stores opaque blobs by id.
type Repository interface {
	// Lock acquires a shared or exclusive lock on id. The returned func releases it.
	Lock(ctx context.Context, id domain.BlobID, exclusive bool) (func(), error)

	Exists(ctx context.Context, id domain.BlobID) bool

	// Store creates or replaces the blob.
	Store(ctx context.Context, blob *domain.Blob) error

	// Fetch returns domain.ErrBlobNotFound when id is unknown.
	Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error)

	// Delete returns domain.ErrBlobNotFound when id is unknown.
	Delete(ctx context.Context, id domain.BlobID) error

	// DeleteVariants removes every blob derived from id with BlobID.Variant.
	DeleteVariants(ctx context.Context, id domain.BlobID) error
}

// RepositoryFactory opens a repository for one kind of blob. name separates
// kinds from each other and ext is the file extension of stored blobs.
type RepositoryFactory func(ctx context.Context, name string, ext string) (Repository, error)
