// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/leadscore/internal/domain/feature"
	"github.com/okian/leadscore/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Score runs the full pipeline for one record.
	Score(ctx context.Context, rec feature.Record) (types.Prediction, error)

	// SeenDelivery atomically checks and records a webhook delivery ID.
	SeenDelivery(ctx context.Context, id string) bool

	// UnrecordDelivery forgets a delivery ID so a redelivery can retry.
	UnrecordDelivery(ctx context.Context, id string)

	// EnqueueWriteback queues a score update for the CRM. Returns false on
	// backpressure or when write-backs are disabled.
	EnqueueWriteback(ctx context.Context, dealID int, probability float64, deliveryID string) bool

	// RecordIgnoredWebhook counts an acknowledged-but-ignored delivery.
	RecordIgnoredWebhook()

	// TargetPipelineID is the single CRM funnel in scope for scoring.
	TargetPipelineID() int
}

// BasicAuth carries the webhook endpoint credentials.
type BasicAuth struct {
	User     string
	Password string
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler    *RootHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	webhookHandler *WebhookHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, auth BasicAuth) *Server {
	return &Server{
		rootHandler:    NewRootHandler(),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		webhookHandler: NewWebhookHandler(deps, auth),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/webhook/pipedrive", MetricsMiddleware(s.webhookHandler.HandleWebhook, "webhook"))
	mux.HandleFunc("/", MetricsMiddleware(s.rootHandler.HandleRoot, "root"))
}

// statusResponse is the envelope for health and webhook acknowledgements.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
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
