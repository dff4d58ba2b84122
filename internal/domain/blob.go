package domain

import (
	"errors"
	"fmt"
	"io"
)

// ErrBlobNotFound is returned when the repository holds no blob for an id.
var ErrBlobNotFound = errors.New("blob not found")

// Blob is an opaque stored byte payload, such as an encoded product image.
type Blob struct {
	ID   BlobID
	Body []byte
}

// NewBlob wraps body under id.
func NewBlob(id BlobID, body []byte) *Blob {
	return &Blob{ID: id, Body: body}
}

// Size returns the payload length in bytes.
func (blob *Blob) Size() int64 {
	return int64(len(blob.Body))
}

// WriteTo writes the payload to writer.
func (blob *Blob) WriteTo(writer io.Writer) (int64, error) {
	n, err := writer.Write(blob.Body)
	if err != nil {
		return int64(n), fmt.Errorf("write blob %s: %w", blob.ID, err)
	}

	return int64(n), nil
}
