package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnsupportedType  = errors.New("unsupported content type")
	ErrMalformed        = errors.New("malformed document")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrClosed           = errors.New("already closed")
)
