// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/claimscore/internal/model"
)

// StatsProvider defines the interface for reading service statistics.
type StatsProvider interface {
	Stats() model.Stats
	FeatureCount() int
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

type statsResponse struct {
	Model    model.Stats `json:"model"`
	Features int         `json:"features"`
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Model:    h.provider.Stats(),
		Features: h.provider.FeatureCount(),
	})
}
