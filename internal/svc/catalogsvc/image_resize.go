package catalogsvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// ErrUnknownInterpolator is returned when an unsupported interpolation method is configured.
var ErrUnknownInterpolator = errors.New("unknown interpolator")

//nolint:gochecknoglobals
var interpolators = map[string]draw.Interpolator{
	"nearestneighbor": draw.NearestNeighbor,
	"catmullrom":      draw.CatmullRom,
	"bilinear":        draw.BiLinear,
	"approxbilinear":  draw.ApproxBiLinear,
}

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolators[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// decodeImage decodes data of the given MIME type.
func decodeImage(data []byte, mimeType string) (image.Image, error) {
	decoder, err := getDecoderByType(mimeType)
	if err != nil {
		return nil, err
	}

	img, err := decoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mimeType, err)
	}

	return img, nil
}

// resizeImage scales img to width, keeping the aspect ratio, and encodes
// it as mimeType.
func resizeImage(img image.Image, mimeType string, width int, interpol draw.Interpolator) ([]byte, error) {
	bounds := img.Bounds()
	height := max(1, bounds.Dy()*width/bounds.Dx())

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	interpol.Scale(bitmap, bitmap.Bounds(), img, bounds, draw.Over, nil)

	encoder, err := getEncoderByType(mimeType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encoder(&buf, bitmap); err != nil {
		return nil, fmt.Errorf("encode %s: %w", mimeType, err)
	}

	return buf.Bytes(), nil
}
