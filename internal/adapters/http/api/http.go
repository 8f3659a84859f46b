// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/claimscore/internal/app"
	"github.com/okian/claimscore/internal/domain/feature"
	"github.com/okian/claimscore/internal/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// PredictBatch scores a batch of claim items keyed by item id.
	PredictBatch(ctx context.Context, items []app.Item) (map[string]app.Prediction, error)

	// Observability reads for the stats endpoint.
	Stats() model.Stats
	FeatureCount() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	predictionsHandler *PredictionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/predictions", MetricsMiddleware(s.predictionsHandler.HandlePostPredictions, "predictions"))
}

// predictionItem mirrors the request schema for one claim service line.
type predictionItem struct {
	ItemID   string         `json:"item_id"`
	Features map[string]any `json:"features"`
}

// predictionRequest mirrors the request schema for POST /v1/predictions.
type predictionRequest struct {
	Items []predictionItem `json:"items"`
}

func (p predictionRequest) validate() error {
	if len(p.Items) == 0 {
		return errors.New("missing items")
	}
	for i, item := range p.Items {
		if strings.TrimSpace(item.ItemID) == "" {
			return fmt.Errorf("item %d: missing item_id", i)
		}
		if item.Features == nil {
			return fmt.Errorf("item %d: missing features", i)
		}
	}
	return nil
}

type predictionResponse struct {
	Results map[string]app.Prediction `json:"results"`
	Count   int                       `json:"count"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isClientFault reports whether a prediction failure was caused by the
// request payload rather than the service.
func isClientFault(err error) bool {
	switch {
	case errors.Is(err, app.ErrBatchTooLarge),
		errors.Is(err, app.ErrInvalidItem),
		errors.Is(err, feature.ErrMissingFeature),
		errors.Is(err, feature.ErrUnknownFeature),
		errors.Is(err, feature.ErrUnknownCategory),
		errors.Is(err, feature.ErrTypeMismatch):
		return true
	}
	return false
}
