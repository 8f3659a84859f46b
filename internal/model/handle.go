// Package model owns the live scoring session: a disposable handle around
// one loaded engine, and a single-slot cache that bounds how long a handle
// is served before being reloaded.
package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/claimscore/internal/engine"
)

// Handle is the exclusive owner of one engine session. Predict is safe for
// concurrent callers; Dispose is idempotent and waits for in-flight
// predictions, so a disposed session is never observed mid-call.
type Handle struct {
	id       string
	eng      engine.Engine
	loadedAt time.Time

	mu       sync.RWMutex
	disposed bool
}

// NewHandle wraps a loaded engine session.
func NewHandle(eng engine.Engine) *Handle {
	return &Handle{
		id:       uuid.NewString(),
		eng:      eng,
		loadedAt: time.Now(),
	}
}

// ID returns the handle's identity, used in logs and stats.
func (h *Handle) ID() string {
	return h.id
}

// LoadedAt returns when the session was created.
func (h *Handle) LoadedAt() time.Time {
	return h.loadedAt
}

// Age returns how long the session has been live.
func (h *Handle) Age() time.Duration {
	return time.Since(h.loadedAt)
}

// Predict scores a batch of feature vectors. The output always has exactly
// one row per input row; any engine failure or count mismatch is a hard
// error for the whole batch.
func (h *Handle) Predict(ctx context.Context, features *mat.Dense) ([][]float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.disposed {
		return nil, ErrHandleDisposed
	}

	out, err := h.eng.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineFailure, err)
	}

	rows, _ := features.Dims()
	if len(out) != rows {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrBatchSizeMismatch, rows, len(out))
	}
	return out, nil
}

// Dispose releases the engine session. Safe to call more than once and safe
// to call on a handle that never scored; the write lock orders disposal
// after every in-flight Predict.
func (h *Handle) Dispose() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.disposed {
		return nil
	}
	h.disposed = true

	if err := h.eng.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrEngineFailure, err)
	}
	return nil
}
