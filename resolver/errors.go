package resolver

import "errors"

var (
	ErrNotFound           = errors.New("no image found")
	ErrInvalidIndex       = errors.New("invalid index")
	ErrMalformedReference = errors.New("malformed s3 reference")
	ErrStorageFetch       = errors.New("storage fetch failed")
	ErrEncoding           = errors.New("image encoding failed")
)
