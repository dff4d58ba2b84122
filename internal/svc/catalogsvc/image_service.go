package catalogsvc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/image/draw"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/repo/blob"
)

var ErrInvalidWidth = errors.New("invalid image width")

// ProductLookup resolves catalog products by id.
type ProductLookup interface {
	FindByID(id domain.ProductID) (domain.Product, bool)
}

// Image is an encoded product image or one of its resized variants.
type Image struct {
	ProductID domain.ProductID
	MIMEType  string
	// Width is the requested variant width, or 0 for the original.
	Width  int
	Body   []byte
	Cached bool
}

// Size returns the encoded length in bytes.
func (img Image) Size() int64 {
	return int64(len(img.Body))
}

// ImageService stores one image per catalog product in a blob repository
// and serves resized variants of it. Variants are cached next to the
// original and dropped whenever the original changes.
type ImageService struct {
	repo     blob.Repository
	products ProductLookup
	interpol draw.Interpolator
	cfg      ImageConfig
	log      logging.Logger
}

// NewImageService opens the "images" repository from repoFactory.
func NewImageService(
	ctx context.Context,
	repoFactory blob.RepositoryFactory,
	products ProductLookup,
	cfg ImageConfig,
) (*ImageService, error) {
	interpol, err := getInterpolatorByName(cfg.Interpolator)
	if err != nil {
		return nil, err
	}

	repo, err := repoFactory(ctx, "images", "bin")
	if err != nil {
		return nil, fmt.Errorf("new image repository: %w", err)
	}

	return &ImageService{
		repo:     repo,
		products: products,
		interpol: interpol,
		cfg:      cfg,
		log:      logging.GetLogger("svc.catalogsvc.image_service"),
	}, nil
}

// MaxSize returns the largest accepted upload in bytes.
func (imageSvc *ImageService) MaxSize() int64 {
	return imageSvc.cfg.MaxSize
}

// Store replaces the image of product id. contentType must name a supported
// format and body must start with that format's magic bytes.
func (imageSvc *ImageService) Store(
	ctx context.Context,
	id domain.ProductID,
	contentType string,
	body []byte,
) (img Image, err error) {
	log := imageSvc.log.With(logging.Group("image", "product", id, "type", contentType, "size", len(body)))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "image store failed", "error", err)
		} else {
			log.InfoContext(ctx, "image stored")
		}
	}()

	if _, ok := imageSvc.products.FindByID(id); !ok {
		return Image{}, fmt.Errorf("store image %d: %w", id, domain.ErrProductNotFound)
	}

	if int64(len(body)) > imageSvc.cfg.MaxSize {
		return Image{}, domain.ErrImageTooLarge
	}

	mimeType, err := checkImageType(contentType, body)
	if err != nil {
		return Image{}, err
	}

	if _, err := decodeImage(body, mimeType); err != nil {
		return Image{}, errors.Join(domain.ErrImageTypeMismatch, err)
	}

	blobID := domain.ProductImageBlobID(id)

	unlock, err := imageSvc.repo.Lock(ctx, blobID, true)
	if err != nil {
		return Image{}, fmt.Errorf("lock image: %w", err)
	}
	defer unlock()

	if err := imageSvc.repo.Store(ctx, domain.NewBlob(blobID, body)); err != nil {
		return Image{}, fmt.Errorf("store image: %w", err)
	}

	if err := imageSvc.repo.DeleteVariants(ctx, blobID); err != nil {
		return Image{}, fmt.Errorf("delete variants: %w", err)
	}

	return Image{ProductID: id, MIMEType: mimeType, Body: body}, nil
}

// Fetch returns the image of product id. A non-zero width returns a copy
// scaled to that width, which is never wider than the original.
func (imageSvc *ImageService) Fetch(ctx context.Context, id domain.ProductID, width int) (img Image, err error) {
	log := imageSvc.log.With(logging.Group("image", "product", id, "width", width))

	defer func() {
		switch {
		case errors.Is(err, domain.ErrImageNotFound):
			log.DebugContext(ctx, "image not found")
		case err != nil:
			log.ErrorContext(ctx, "image fetch failed", "error", err)
		default:
			log.DebugContext(ctx, "image fetched", "cached", img.Cached)
		}
	}()

	if width < 0 || width > imageSvc.cfg.MaxWidth {
		return Image{}, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}

	blobID := domain.ProductImageBlobID(id)

	unlock, err := imageSvc.repo.Lock(ctx, blobID, false)
	if err != nil {
		return Image{}, fmt.Errorf("lock image: %w", err)
	}
	defer unlock()

	original, err := imageSvc.fetchBlob(ctx, blobID)
	if err != nil {
		return Image{}, err
	}

	mimeType, ok := sniffImageType(original.Body)
	if !ok {
		return Image{}, fmt.Errorf("%w: stored image of product %d", domain.ErrImageTypeNotSupported, id)
	}

	img = Image{ProductID: id, MIMEType: mimeType, Body: original.Body}
	if width == 0 {
		return img, nil
	}

	variantID := blobID.Variant(width)

	if imageSvc.repo.Exists(ctx, variantID) {
		variant, err := imageSvc.fetchBlob(ctx, variantID)
		if err == nil {
			return Image{ProductID: id, MIMEType: mimeType, Width: width, Body: variant.Body, Cached: true}, nil
		}

		log.WarnContext(ctx, "cached variant unreadable", "error", err)
	}

	decoded, err := decodeImage(original.Body, mimeType)
	if err != nil {
		return Image{}, err
	}

	if decoded.Bounds().Dx() <= width {
		img.Width = width

		return img, nil
	}

	resized, err := resizeImage(decoded, mimeType, width, imageSvc.interpol)
	if err != nil {
		return Image{}, fmt.Errorf("resize image: %w", err)
	}

	if err := imageSvc.repo.Store(ctx, domain.NewBlob(variantID, resized)); err != nil {
		log.WarnContext(ctx, "cache variant failed", "error", err)
	}

	return Image{ProductID: id, MIMEType: mimeType, Width: width, Body: resized}, nil
}

// Delete removes the image of product id together with its variants.
func (imageSvc *ImageService) Delete(ctx context.Context, id domain.ProductID) (err error) {
	log := imageSvc.log.With(logging.Group("image", "product", id))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "image delete failed", "error", err)
		} else {
			log.InfoContext(ctx, "image deleted")
		}
	}()

	blobID := domain.ProductImageBlobID(id)

	unlock, err := imageSvc.repo.Lock(ctx, blobID, true)
	if err != nil {
		return fmt.Errorf("lock image: %w", err)
	}
	defer unlock()

	if err := imageSvc.repo.Delete(ctx, blobID); errors.Is(err, domain.ErrBlobNotFound) {
		return fmt.Errorf("delete image %d: %w", id, domain.ErrImageNotFound)
	} else if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	if err := imageSvc.repo.DeleteVariants(ctx, blobID); err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}

	return nil
}

func (imageSvc *ImageService) fetchBlob(ctx context.Context, id domain.BlobID) (*domain.Blob, error) {
	b, err := imageSvc.repo.Fetch(ctx, id)
	if errors.Is(err, domain.ErrBlobNotFound) {
		return nil, fmt.Errorf("fetch %s: %w", id, domain.ErrImageNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}

	return b, nil
}
