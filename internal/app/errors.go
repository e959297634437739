package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("document not found")
	ErrFileTooLarge      = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedFormat = errors.New("file format not supported for this document type")
	ErrPrecondition      = errors.New("document text is not ready for generation")
	ErrInference         = errors.New("language model unavailable")
	ErrStorage           = errors.New("document storage failed")
)
