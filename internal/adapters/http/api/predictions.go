// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/claimscore/internal/app"
)

// PredictionsHandler handles batch prediction requests.
type PredictionsHandler struct {
	deps Dependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps Dependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// HandlePostPredictions handles POST /v1/predictions requests. The batch is
// atomic: either every item scores or the request fails with the first
// offending item named in the message.
func (h *PredictionsHandler) HandlePostPredictions(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predictions"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	items := make([]app.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = app.Item{ID: it.ItemID, Features: it.Features}
	}

	results, err := h.deps.PredictBatch(r.Context(), items)
	if err != nil {
		if isClientFault(err) {
			writeError(w, http.StatusBadRequest, "invalid_items", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "prediction_failed", WrapKind(op, ErrPredict, err))
		return
	}

	writeJSON(w, http.StatusOK, predictionResponse{Results: results, Count: len(results)})
}
