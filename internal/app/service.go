// Package app provides the core business service that implements the
// dependencies required by the HTTP API: batch denial prediction over the
// feature pipeline, the cached model handle, and the configured calibrator.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/claimscore/internal/domain/calibration"
	"github.com/okian/claimscore/internal/domain/feature"
	"github.com/okian/claimscore/internal/model"
	"github.com/okian/claimscore/pkg/logger"
	"github.com/okian/claimscore/pkg/metrics"
)

const (
	defaultMaxBatchSize = 256

	// Dummy prediction cycle used when no model artifact is deployed:
	// 0.5, 0.6, 0.7, 0.8, 0.9, 0.5, ...
	dummyBase  = 0.5
	dummyStep  = 0.1
	dummyCycle = 5
)

// Item is one claim service line to score: a caller-supplied id and its
// raw feature bag.
type Item struct {
	ID       string
	Features feature.Bag
}

// Prediction is the scored result for one item. Dummy marks results
// produced by the fallback mode rather than a live model.
type Prediction struct {
	RawScore    float64 `json:"raw_score"`
	Probability float64 `json:"probability"`
	Dummy       bool    `json:"dummy,omitempty"`
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMaxBatchSize caps the number of items accepted per request.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// Service orchestrates batch denial prediction. It holds no per-request
// state; the schema is immutable and the model cache is its own
// synchronization point, so concurrent requests need no further locking.
type Service struct {
	encoder      *feature.Encoder
	calibrator   calibration.Calibrator
	cache        *model.Cache
	maxBatchSize int
	log          logger.Logger
}

// New constructs the prediction service.
func New(encoder *feature.Encoder, calibrator calibration.Calibrator, cache *model.Cache, opts ...Option) *Service {
	s := &Service{
		encoder:      encoder,
		calibrator:   calibrator,
		cache:        cache,
		maxBatchSize: defaultMaxBatchSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// PredictBatch scores a batch of items and returns one result per item,
// keyed by the caller-supplied id. The batch is atomic: any item that fails
// to encode fails the whole request. When no model artifact is available
// the service returns deterministic dummy predictions, flagged per result,
// so the API stays usable before a model is deployed.
func (s *Service) PredictBatch(ctx context.Context, items []Item) (map[string]Prediction, error) {
	if len(items) == 0 {
		return map[string]Prediction{}, nil
	}
	if len(items) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d items, maximum is %d", ErrBatchTooLarge, len(items), s.maxBatchSize)
	}

	start := time.Now()
	metrics.RecordBatchSize(len(items))

	bags := make([]feature.Bag, len(items))
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("%w: item %d has an empty id", ErrInvalidItem, i)
		}
		bags[i] = item.Features
	}

	raws, dummy, err := s.rawScores(ctx, bags)
	if err != nil {
		kind := "engine"
		if errors.Is(err, feature.ErrMissingFeature) || errors.Is(err, feature.ErrTypeMismatch) ||
			errors.Is(err, feature.ErrUnknownCategory) || errors.Is(err, feature.ErrUnknownFeature) {
			kind = "encode"
		}
		metrics.RecordPredictionError(kind)
		return nil, err
	}

	mode := "model"
	if dummy {
		mode = "dummy"
	}

	results := make(map[string]Prediction, len(items))
	for i, item := range items {
		p := s.calibrator.Calibrate(raws[i])
		if p < 0 || p > 1 {
			metrics.RecordCalibratedOutOfRange()
		}
		results[item.ID] = Prediction{
			RawScore:    raws[i],
			Probability: p,
			Dummy:       dummy,
		}
	}

	metrics.RecordPrediction(mode, len(items))
	metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))
	if s.log != nil {
		s.log.Info(ctx, "completed batch prediction",
			logger.Int("items", len(items)),
			logger.String("mode", mode),
		)
	}

	return results, nil
}

// rawScores encodes the batch and runs the model over it, or produces the
// dummy cycle when the cache reports that no model artifact exists.
func (s *Service) rawScores(ctx context.Context, bags []feature.Bag) ([]float64, bool, error) {
	matrix, err := s.encoder.Matrix(bags)
	if err != nil {
		return nil, false, err
	}

	handle, err := s.cache.GetOrLoad(ctx)
	if err != nil {
		if errors.Is(err, model.ErrModelUnavailable) {
			if s.log != nil {
				s.log.Warn(ctx, "model unavailable, generating dummy predictions",
					logger.Int("items", len(bags)),
					logger.Error(err),
				)
			}
			return dummyScores(len(bags)), true, nil
		}
		return nil, false, err
	}

	outputs, err := handle.Predict(ctx, matrix)
	if err != nil {
		return nil, false, err
	}

	raws := make([]float64, len(outputs))
	for i, row := range outputs {
		if len(row) == 0 {
			return nil, false, fmt.Errorf("%w: empty output row for item %d", model.ErrEngineFailure, i)
		}
		raws[i] = row[0]
	}

	return raws, false, nil
}

// dummyScores returns the deterministic fallback cycle.
func dummyScores(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dummyBase + float64(i%dummyCycle)*dummyStep
	}
	return out
}

// Stats reports model cache state for monitoring.
func (s *Service) Stats() model.Stats {
	return s.cache.Stats()
}

// FeatureCount reports the width of the feature schema.
func (s *Service) FeatureCount() int {
	return s.encoder.Schema().Count()
}

// Close shuts down the model cache, disposing any live handle.
func (s *Service) Close() error {
	return s.cache.Close()
}
