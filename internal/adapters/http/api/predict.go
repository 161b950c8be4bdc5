// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/leadscore/internal/domain/feature"
	"github.com/okian/leadscore/internal/domain/types"
)

// PredictDependencies defines the interface for direct prediction requests.
type PredictDependencies interface {
	Score(ctx context.Context, rec feature.Record) (types.Prediction, error)
}

// PredictHandler handles direct prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// predictRequest mirrors the public schema for POST /predict. Absent
// categorical fields stay empty here; sentinel defaulting happens inside
// the encoder.
type predictRequest struct {
	Valor       float64 `json:"valor"`
	UTMCampaign string  `json:"utm_campaign"`
	UTMContent  string  `json:"utm_content"`
	UTMMedium   string  `json:"utm_medium"`
	UTMSource   string  `json:"utm_source"`
	UTMTerm     string  `json:"utm_term"`
}

func (p predictRequest) record() feature.Record {
	return feature.Record{
		Valor:       p.Valor,
		UTMCampaign: p.UTMCampaign,
		UTMContent:  p.UTMContent,
		UTMMedium:   p.UTMMedium,
		UTMSource:   p.UTMSource,
		UTMTerm:     p.UTMTerm,
	}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	prediction, err := h.deps.Score(r.Context(), req.record())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrScoring, err))
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}
