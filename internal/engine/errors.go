package engine

import "errors"

// Sentinel kinds for engine errors.
var (
	// ErrArtifactUnavailable means no model artifact is configured or the
	// configured file does not exist. Recoverable: the service may fall back
	// to dummy predictions.
	ErrArtifactUnavailable = errors.New("model artifact unavailable")

	// ErrBadArtifact means the artifact exists but cannot be used. Fatal for
	// the load attempt.
	ErrBadArtifact = errors.New("bad model artifact")

	// ErrEngine covers scoring failures inside a loaded engine.
	ErrEngine = errors.New("engine prediction failed")

	// ErrClosed means the engine session was already released.
	ErrClosed = errors.New("engine session closed")
)
