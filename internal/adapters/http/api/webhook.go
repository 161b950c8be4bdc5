package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/leadscore/internal/domain/feature"
	"github.com/okian/leadscore/pkg/metrics"
)

// Portuguese acknowledgement messages kept stable for downstream log parsers.
const (
	msgIgnoredNoDealID   = "Evento ignorado: sem ID de negócio."
	msgIgnoredPipeline   = "Evento ignorado: funil fora do escopo."
	msgIgnoredDuplicate  = "Evento ignorado: entrega duplicada."
	msgScoredFmt         = "Lead %d pontuado: %.2f%%"
	webhookOutcomeScored = "scored"
	webhookOutcomeIgnore = "ignored"
	webhookOutcomeError  = "error"
	webhookOutcomeDenied = "unauthorized"
)

// WebhookHandler handles CRM deal-change notifications.
type WebhookHandler struct {
	deps Dependencies
	auth BasicAuth
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(deps Dependencies, auth BasicAuth) *WebhookHandler {
	return &WebhookHandler{
		deps: deps,
		auth: auth,
	}
}

// flexString tolerates payloads where the sender serializes an ID as either
// a JSON string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexValue tolerates deal values sent as a number or a numeric string.
// Unparseable values collapse to zero so the sentinel pipeline still runs.
type flexValue float64

func (f *flexValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexValue(parsed)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexValue(v)
	return nil
}

// webhookEnvelope is the subset of the CRM notification we act on.
type webhookEnvelope struct {
	Meta struct {
		ID flexString `json:"id"`
	} `json:"meta"`
	Current *struct {
		ID          *int      `json:"id"`
		PipelineID  *int      `json:"pipeline_id"`
		Value       flexValue `json:"value"`
		UTMCampaign string    `json:"utm_campaign"`
		UTMContent  string    `json:"utm_content"`
		UTMMedium   string    `json:"utm_medium"`
		UTMSource   string    `json:"utm_source"`
		UTMTerm     string    `json:"utm_term"`
	} `json:"current"`
}

// HandleWebhook handles POST /webhook/pipedrive notifications.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const op = "api.webhook"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if !h.authorized(r) {
		metrics.RecordWebhookEvent(webhookOutcomeDenied)
		w.Header().Set("WWW-Authenticate", `Basic realm="webhook"`)
		writeWebhookError(w, http.StatusUnauthorized, NewKind(op, ErrUnauthorized))
		return
	}

	var env webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		metrics.RecordWebhookEvent(webhookOutcomeError)
		writeWebhookError(w, http.StatusBadRequest, WrapKind(op, ErrBadRequest, err))
		return
	}

	if env.Current == nil || env.Current.ID == nil {
		h.ignore(w, msgIgnoredNoDealID)
		return
	}
	dealID := *env.Current.ID

	if env.Current.PipelineID == nil || *env.Current.PipelineID != h.deps.TargetPipelineID() {
		h.ignore(w, msgIgnoredPipeline)
		return
	}

	deliveryID := string(env.Meta.ID)
	if deliveryID != "" && h.deps.SeenDelivery(r.Context(), deliveryID) {
		h.ignore(w, msgIgnoredDuplicate)
		return
	}

	rec := feature.Record{
		Valor:       float64(env.Current.Value),
		UTMCampaign: env.Current.UTMCampaign,
		UTMContent:  env.Current.UTMContent,
		UTMMedium:   env.Current.UTMMedium,
		UTMSource:   env.Current.UTMSource,
		UTMTerm:     env.Current.UTMTerm,
	}

	prediction, err := h.deps.Score(r.Context(), rec)
	if err != nil {
		// Forget the delivery so the sender's retry gets a fresh attempt.
		if deliveryID != "" {
			h.deps.UnrecordDelivery(r.Context(), deliveryID)
		}
		metrics.RecordWebhookEvent(webhookOutcomeError)
		writeWebhookError(w, http.StatusInternalServerError, WrapKind(op, ErrScoring, err))
		return
	}

	// Enqueue failures are counted by the queue metrics and must not turn
	// a scored delivery into a webhook error.
	_ = h.deps.EnqueueWriteback(r.Context(), dealID, prediction.Probability, deliveryID)

	metrics.RecordWebhookEvent(webhookOutcomeScored)
	percent := math.Round(prediction.Probability*10000) / 100
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Message: fmt.Sprintf(msgScoredFmt, dealID, percent),
	})
}

// authorized performs a constant-time credential check. Both comparisons
// always run so response timing does not leak which field mismatched.
func (h *WebhookHandler) authorized(r *http.Request) bool {
	user, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(h.auth.User))
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(h.auth.Password))
	return userMatch&passMatch == 1
}

// writeWebhookError keeps webhook failures in the same {status, message}
// envelope the acknowledgements use, with status "error".
func writeWebhookError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, statusResponse{Status: "error", Message: msg})
}

func (h *WebhookHandler) ignore(w http.ResponseWriter, msg string) {
	h.deps.RecordIgnoredWebhook()
	metrics.RecordWebhookEvent(webhookOutcomeIgnore)
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Message: msg})
}
