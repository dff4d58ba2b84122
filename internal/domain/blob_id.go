package domain

import (
	"fmt"
	"strconv"
)

// BlobID names a stored blob. Product images use "product-<id>" for the
// original and "product-<id>-w<width>" for resized variants.
type BlobID string

// ProductImageBlobID is the blob holding the uploaded image of a product.
func ProductImageBlobID(id ProductID) BlobID {
	return BlobID("product-" + strconv.FormatInt(int64(id), 10))
}

// Variant returns the id of a resized copy of this blob.
func (id BlobID) Variant(width int) BlobID {
	return BlobID(fmt.Sprintf("%s-w%d", id, width))
}

func (id BlobID) String() string {
	return string(id)
}
