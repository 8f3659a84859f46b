package feature

import "errors"

// Sentinel kinds for feature schema and encoding errors.
//
// Schema-class errors (ErrLoadSchema, ErrInvalidSchema, ErrBadMapping) are
// fatal at startup. Encoding-class errors (ErrUnknownFeature,
// ErrMissingFeature, ErrTypeMismatch, ErrUnknownCategory) abort the item
// being encoded and surface to the caller.
var (
	ErrLoadSchema      = errors.New("load feature schema failed")
	ErrInvalidSchema   = errors.New("invalid feature schema")
	ErrBadMapping      = errors.New("bad categorical mapping")
	ErrUnknownFeature  = errors.New("unknown feature")
	ErrMissingFeature  = errors.New("missing required feature")
	ErrTypeMismatch    = errors.New("feature type mismatch")
	ErrUnknownCategory = errors.New("unknown categorical value with no fallback")
)
