package app

import "errors"

// Sentinel kinds for prediction service errors. Encoding failures pass
// through from the feature package; engine and batch-size failures pass
// through from the model package.
var (
	ErrBatchTooLarge = errors.New("batch exceeds configured maximum size")
	ErrInvalidItem   = errors.New("invalid prediction item")
)
