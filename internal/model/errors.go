package model

import "errors"

// Sentinel kinds for model handle and cache errors.
var (
	// ErrModelUnavailable means no model artifact could be loaded.
	// Recoverable: the prediction service decides whether to fall back.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrHandleDisposed means a caller reached a handle after disposal.
	ErrHandleDisposed = errors.New("model handle disposed")

	// ErrBatchSizeMismatch means the engine returned a different number of
	// outputs than inputs. Hard error; never truncated or padded.
	ErrBatchSizeMismatch = errors.New("engine output count does not match input count")

	// ErrEngineFailure wraps scoring failures from the underlying engine.
	ErrEngineFailure = errors.New("engine failure")

	// ErrCacheClosed means the cache was shut down.
	ErrCacheClosed = errors.New("model cache closed")
)
