package catalogsvc_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/repo/blob"
	"github.com/mkrupp/shopzone/internal/repo/catalog"
	. "github.com/mkrupp/shopzone/internal/svc/catalogsvc"
)

func testImageConfig() ImageConfig {
	return ImageConfig{
		Interpolator: "catmullrom",
		MaxSize:      1 << 20,
		MaxWidth:     1024,
	}
}

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xFF}) //nolint:gosec
		}
	}

	return img
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(width, height)))

	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(width, height), nil))

	return buf.Bytes()
}

func encodeTIFF(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, testImage(width, height), nil))

	return buf.Bytes()
}

func setupImageService(t *testing.T, cfg ImageConfig) (*ImageService, *blob.MemoryRepository) {
	t.Helper()

	c, err := catalog.Default()
	require.NoError(t, err)

	repo := blob.NewMemoryRepository()
	factory := func(context.Context, string, string) (blob.Repository, error) { return repo, nil }

	svc, err := NewImageService(t.Context(), factory, c, cfg)
	require.NoError(t, err)

	return svc, repo
}

func decodedWidth(t *testing.T, body []byte) int {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)

	return cfg.Width
}

func TestImageService_StoreFetch(t *testing.T) {
	t.Parallel()

	svc, repo := setupImageService(t, testImageConfig())
	ctx := t.Context()
	original := encodePNG(t, 200, 100)

	stored, err := svc.Store(ctx, 3, "image/png", original)
	require.NoError(t, err)
	assert.Equal(t, MIMETypePNG, stored.MIMEType)
	assert.Equal(t, int64(len(original)), stored.Size())

	img, err := svc.Fetch(ctx, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, original, img.Body)
	assert.Equal(t, MIMETypePNG, img.MIMEType)

	small, err := svc.Fetch(ctx, 3, 50)
	require.NoError(t, err)
	assert.False(t, small.Cached)
	assert.Equal(t, 50, decodedWidth(t, small.Body))
	assert.True(t, repo.Exists(ctx, domain.ProductImageBlobID(3).Variant(50)))

	again, err := svc.Fetch(ctx, 3, 50)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, small.Body, again.Body)

	wide, err := svc.Fetch(ctx, 3, 400)
	require.NoError(t, err)
	assert.Equal(t, original, wide.Body, "no upscaling")

	_, err = svc.Store(ctx, 3, "image/png", encodePNG(t, 80, 80))
	require.NoError(t, err)
	assert.False(t, repo.Exists(ctx, domain.ProductImageBlobID(3).Variant(50)), "replacing drops variants")
}

func TestImageService_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        func(t *testing.T, width, height int) []byte
	}{
		{"jpeg", "image/jpeg", encodeJPEG},
		{"png", "image/png; charset=binary", encodePNG},
		{"tiff", "image/tiff", encodeTIFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := setupImageService(t, testImageConfig())

			_, err := svc.Store(t.Context(), 1, tt.contentType, tt.body(t, 64, 32))
			require.NoError(t, err)

			img, err := svc.Fetch(t.Context(), 1, 16)
			require.NoError(t, err)

			bounds, _, err := image.DecodeConfig(bytes.NewReader(img.Body))
			require.NoError(t, err)
			assert.Equal(t, 16, bounds.Width)
			assert.Equal(t, 8, bounds.Height)
		})
	}
}

func TestImageService_StoreRejects(t *testing.T) {
	t.Parallel()

	cfg := testImageConfig()
	cfg.MaxSize = 4096

	svc, repo := setupImageService(t, cfg)
	pngBody := encodePNG(t, 8, 8)

	tests := []struct {
		name        string
		id          domain.ProductID
		contentType string
		body        []byte
		wantErr     error
	}{
		{"unknown product", 999, "image/png", pngBody, domain.ErrProductNotFound},
		{"too large", 1, "image/png", make([]byte, 4097), domain.ErrImageTooLarge},
		{"unsupported type", 1, "image/gif", []byte("GIF89a"), domain.ErrImageTypeNotSupported},
		{"unparsable type", 1, "", pngBody, domain.ErrImageTypeNotSupported},
		{"jpeg body as png", 1, "image/png", encodeJPEG(t, 8, 8), domain.ErrImageTypeMismatch},
		{"truncated png", 1, "image/png", pngBody[:16], domain.ErrImageTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Store(t.Context(), tt.id, tt.contentType, tt.body)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.False(t, repo.Exists(t.Context(), domain.ProductImageBlobID(1)))
}

func TestImageService_FetchErrors(t *testing.T) {
	t.Parallel()

	svc, _ := setupImageService(t, testImageConfig())

	_, err := svc.Fetch(t.Context(), 5, 0)
	require.ErrorIs(t, err, domain.ErrImageNotFound)

	_, err = svc.Fetch(t.Context(), 5, -1)
	require.ErrorIs(t, err, ErrInvalidWidth)

	_, err = svc.Fetch(t.Context(), 5, 1025)
	require.ErrorIs(t, err, ErrInvalidWidth)
}

func TestImageService_Delete(t *testing.T) {
	t.Parallel()

	svc, repo := setupImageService(t, testImageConfig())
	ctx := t.Context()

	_, err := svc.Store(ctx, 2, "image/png", encodePNG(t, 40, 40))
	require.NoError(t, err)

	_, err = svc.Fetch(ctx, 2, 20)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 2))
	assert.False(t, repo.Exists(ctx, domain.ProductImageBlobID(2).Variant(20)))

	_, err = svc.Fetch(ctx, 2, 0)
	require.ErrorIs(t, err, domain.ErrImageNotFound)

	require.ErrorIs(t, svc.Delete(ctx, 2), domain.ErrImageNotFound)
}

func TestNewImageService_UnknownInterpolator(t *testing.T) {
	t.Parallel()

	cfg := testImageConfig()
	cfg.Interpolator = "lanczos"

	_, err := NewImageService(t.Context(), blob.MemoryBlobRepositoryFactory(), nil, cfg)
	require.ErrorIs(t, err, ErrUnknownInterpolator)
}
