package catalogsvc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime"

	"golang.org/x/image/tiff"

	"github.com/mkrupp/shopzone/internal/domain"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeTIFF = "image/tiff"
)

//nolint:gochecknoglobals
var (
	imageHeaders = map[string][]string{
		MIMETypeJPEG: {"\xFF\xD8"},
		MIMETypePNG:  {"\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		MIMETypeTIFF: {"\x49\x49\x2A\x00", "\x4D\x4D\x00\x2A"},
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypeTIFF: tiff.Decode,
		MIMETypePNG:  png.Decode,
	}

	imageEncoders = map[string]func(io.Writer, image.Image) error{
		MIMETypeJPEG: func(w io.Writer, i image.Image) error { return jpeg.Encode(w, i, nil) },
		MIMETypeTIFF: func(w io.Writer, i image.Image) error { return tiff.Encode(w, i, nil) },
		MIMETypePNG:  png.Encode,
	}
)

// sniffImageType returns the MIME type whose magic bytes body starts with.
func sniffImageType(body []byte) (string, bool) {
	for mimeType, headers := range imageHeaders {
		for _, header := range headers {
			if bytes.HasPrefix(body, []byte(header)) {
				return mimeType, true
			}
		}
	}

	return "", false
}

// checkImageType validates that contentType is supported and that body
// really is of that type. It returns the bare MIME type.
func checkImageType(contentType string, body []byte) (string, error) {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, contentType)
	}

	if _, ok := imageHeaders[mimeType]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, mimeType)
	}

	if sniffed, ok := sniffImageType(body); !ok || sniffed != mimeType {
		return "", fmt.Errorf("%w: %q", domain.ErrImageTypeMismatch, mimeType)
	}

	return mimeType, nil
}

func getDecoderByType(mimeType string) (func(io.Reader) (image.Image, error), error) {
	decoder, ok := imageDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, mimeType)
	}

	return decoder, nil
}

func getEncoderByType(mimeType string) (func(io.Writer, image.Image) error, error) {
	encoder, ok := imageEncoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, mimeType)
	}

	return encoder, nil
}
