package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Model types accepted in the linear artifact.
const (
	modelTypeLinear   = "linear"
	modelTypeLogistic = "logistic_regression"
)

// linearArtifact mirrors the JSON export of a (logistic) linear model:
// {"model_type": "...", "weights": [...], "bias": ..., "version": "..."}.
type linearArtifact struct {
	ModelType string    `json:"model_type"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Version   string    `json:"version"`
}

// Linear is a gonum-backed engine for exported linear and logistic models.
// The margin is X·w + b per row; logistic models squash it through a
// sigmoid, linear models emit it raw.
type Linear struct {
	mu       sync.RWMutex
	closed   bool
	weights  *mat.VecDense
	bias     float64
	logistic bool
	version  string
}

// LoadLinear opens a linear engine session from a JSON artifact. A missing
// file reports ErrArtifactUnavailable so callers can distinguish "not
// deployed yet" from a corrupt artifact.
func LoadLinear(ctx context.Context, path string) (Engine, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no model path configured", ErrArtifactUnavailable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w", ErrArtifactUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrBadArtifact, err)
	}

	var art linearArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadArtifact, err)
	}
	if len(art.Weights) == 0 {
		return nil, fmt.Errorf("%w: artifact has no weights", ErrBadArtifact)
	}

	var logistic bool
	switch art.ModelType {
	case modelTypeLogistic:
		logistic = true
	case modelTypeLinear:
		logistic = false
	default:
		return nil, fmt.Errorf("%w: unsupported model_type %q", ErrBadArtifact, art.ModelType)
	}

	return &Linear{
		weights:  mat.NewVecDense(len(art.Weights), art.Weights),
		bias:     art.Bias,
		logistic: logistic,
		version:  art.Version,
	}, nil
}

// NewLinear builds an in-memory linear engine. Used by tests and tooling
// that do not go through an artifact file.
func NewLinear(weights []float64, bias float64, logistic bool) *Linear {
	w := make([]float64, len(weights))
	copy(w, weights)
	return &Linear{
		weights:  mat.NewVecDense(len(w), w),
		bias:     bias,
		logistic: logistic,
	}
}

// Version returns the artifact version string, if any.
func (l *Linear) Version() string {
	return l.version
}

// Predict computes one score per input row.
func (l *Linear) Predict(ctx context.Context, features *mat.Dense) ([][]float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngine, err)
	}

	rows, cols := features.Dims()
	if cols != l.weights.Len() {
		return nil, fmt.Errorf("%w: matrix has %d features, model expects %d", ErrEngine, cols, l.weights.Len())
	}

	margins := mat.NewVecDense(rows, nil)
	margins.MulVec(features, l.weights)

	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		score := margins.AtVec(i) + l.bias
		if l.logistic {
			score = 1.0 / (1.0 + math.Exp(-score))
		}
		out[i] = []float64{score}
	}
	return out, nil
}

// Close marks the session released. Idempotent.
func (l *Linear) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
