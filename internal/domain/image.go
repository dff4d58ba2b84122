package domain

import "errors"

var (
	ErrImageTypeNotSupported = errors.New("image type not supported")
	ErrImageTypeMismatch     = errors.New("image content does not match content type")
	ErrImageTooLarge         = errors.New("image too large")
	ErrImageNotFound         = errors.New("product has no image")
)
