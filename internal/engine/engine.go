// Package engine abstracts the scoring runtime behind a small capability:
// batch prediction over a feature matrix plus explicit resource release. The
// rest of the service treats the engine as an opaque function from matrices
// to raw outputs; the concrete binding is an implementation detail.
package engine

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Engine scores a batch of feature vectors. Predict must be safe for
// concurrent invocation; Close releases whatever the session holds and is
// the owner's responsibility to call exactly once per session.
type Engine interface {
	// Predict returns one output row per input row. Row i of the result
	// corresponds to row i of the input matrix.
	Predict(ctx context.Context, features *mat.Dense) ([][]float64, error)

	// Close releases engine resources.
	Close() error
}

// Loader opens a new engine session from a model artifact path. Implemented
// by the concrete engine bindings; the model cache calls it on every
// (re)load.
type Loader func(ctx context.Context, path string) (Engine, error)
