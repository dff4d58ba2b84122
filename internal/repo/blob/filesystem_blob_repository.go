package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/util/flock"
)

var ErrInvalidBlobID = errors.New("invalid blob id")

// FileSystemBlobRepositoryConfig holds configuration for the filesystem-based blob repository.
type FileSystemBlobRepositoryConfig struct {
	Basedir string `env:"BASEDIR" default:"var/storage/blob"`
}

// FileSystemBlobRepositoryFactory returns a RepositoryFactory that keeps
// each kind of blob in its own directory under cfg.Basedir.
func FileSystemBlobRepositoryFactory(cfg FileSystemBlobRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context, name string, ext string) (Repository, error) {
		return NewFileSystemBlobRepository(ctx, name, ext, cfg)
	}
}

// FileSystemRepository stores each blob as <basedir>/<subdir>/<id>.<ext>.
type FileSystemRepository struct {
	dir string
	ext string
	log logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

func NewFileSystemBlobRepository(
	ctx context.Context,
	subdir string,
	ext string,
	cfg FileSystemBlobRepositoryConfig,
) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir: filepath.Join(cfg.Basedir, subdir),
		ext: ext,
		log: logging.GetLogger("repo.blob.filesystem").With(
			logging.Group("repo", "dir", filepath.Join(cfg.Basedir, subdir), "ext", ext),
		),
	}

	if err := os.MkdirAll(repo.dir, 0o755); err != nil {
		repo.log.ErrorContext(ctx, "init storage failed", "error", err)

		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	return repo, nil
}

// GetFilename returns the path a blob with id is stored at.
func (fsRepo *FileSystemRepository) GetFilename(id domain.BlobID) string {
	return filepath.Join(fsRepo.dir, string(id)+"."+fsRepo.ext)
}

func validID(id domain.BlobID) error {
	if id == "" || strings.ContainsAny(string(id), `/\*?[`) || strings.HasPrefix(string(id), ".") {
		return fmt.Errorf("%w: %q", ErrInvalidBlobID, id)
	}

	return nil
}

func (fsRepo *FileSystemRepository) Lock(ctx context.Context, id domain.BlobID, exclusive bool) (func(), error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	release, err := flock.Lock(fsRepo.GetFilename(id), exclusive)
	if err != nil {
		fsRepo.log.ErrorContext(ctx, "lock failed", "id", id, "error", err)

		return nil, fmt.Errorf("lock blob: %w", err)
	}

	return release, nil
}

func (fsRepo *FileSystemRepository) Exists(_ context.Context, id domain.BlobID) bool {
	if validID(id) != nil {
		return false
	}

	_, err := os.Stat(fsRepo.GetFilename(id))

	return err == nil
}

func (fsRepo *FileSystemRepository) Store(ctx context.Context, blob *domain.Blob) (err error) {
	filename := fsRepo.GetFilename(blob.ID)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", blob.ID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob store failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob stored", "size", blob.Size())
		}
	}()

	if err := validID(blob.ID); err != nil {
		return err
	}

	if err := flock.WriteFileAtomic(filename, blob.Body, 0o644); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}

	return nil
}

func (fsRepo *FileSystemRepository) Fetch(ctx context.Context, id domain.BlobID) (blob *domain.Blob, err error) {
	filename := fsRepo.GetFilename(id)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", id, "filename", filename))

		switch {
		case errors.Is(err, domain.ErrBlobNotFound):
			log.DebugContext(ctx, "blob not found")
		case err != nil:
			log.ErrorContext(ctx, "blob fetch failed", "error", err)
		default:
			log.DebugContext(ctx, "blob fetched", "size", blob.Size())
		}
	}()

	if err := validID(id); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fetch blob %s: %w", id, domain.ErrBlobNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("fetch blob: %w", err)
	}

	return domain.NewBlob(id, body), nil
}

func (fsRepo *FileSystemRepository) Delete(ctx context.Context, id domain.BlobID) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "blob delete failed", "id", id, "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "blob deleted", "id", id)
		}
	}()

	if err := validID(id); err != nil {
		return err
	}

	if err := os.Remove(fsRepo.GetFilename(id)); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", id, domain.ErrBlobNotFound)
	} else if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}

func (fsRepo *FileSystemRepository) DeleteVariants(ctx context.Context, id domain.BlobID) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "blob variants delete failed", "id", id, "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "blob variants deleted", "id", id)
		}
	}()

	if err := validID(id); err != nil {
		return err
	}

	filenames, err := filepath.Glob(filepath.Join(fsRepo.dir, string(id)+"-w*."+fsRepo.ext))
	if err != nil {
		return fmt.Errorf("glob: %w", err)
	}

	for _, filename := range filenames {
		if err := os.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove: %w", err)
		}
	}

	return nil
}
