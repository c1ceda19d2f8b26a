package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"jobsync-engine/internal/catalog"
	"jobsync-engine/internal/events"
	"jobsync-engine/internal/pipeline"
)

// Webhook bodies are small JSON; anything past this is abuse.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	Pipeline        *pipeline.Orchestrator
	Hub             *events.Hub
	SignatureHeader string
}

type webhookResponse struct {
	OK          bool     `json:"ok"`
	NoOp        bool     `json:"no_op,omitempty"`
	Invalidated []string `json:"invalidated,omitempty"`
}

// Receive is POST /webhook: the single ingress for signed notifications.
// Response contract: 200 processed (including no-op kinds), 400 missing
// signature header or malformed body, 401 verification failure, 500
// anything unexpected.
func (h WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "read_body", "could not read request body")
		return
	}
	if len(body) > maxWebhookBody {
		WriteError(w, r, http.StatusBadRequest, "body_too_large", "request body too large")
		return
	}

	sig := strings.TrimSpace(r.Header.Get(h.SignatureHeader))
	if sig == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_signature", h.SignatureHeader+" header is required")
		return
	}

	res, err := h.Pipeline.Process(r.Context(), body, sig)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	if len(res.Invalidations) > 0 && h.Hub != nil {
		reqID := RequestIDFrom(r.Context())
		h.Hub.Publish(events.MakeInvalidation(reqID, res.Event, res.JobID, res.Invalidations))
	}

	writeJSON(w, webhookResponse{OK: true, NoOp: res.NoOp, Invalidated: res.Invalidations})
}

// reject maps classified pipeline failures to the response contract. The
// fallthrough is a generic 500 that never echoes error internals.
func (h WebhookHandler) reject(w http.ResponseWriter, r *http.Request, err error) {
	var storageErr *catalog.StorageError
	switch {
	case errors.Is(err, pipeline.ErrMissingSignature):
		WriteError(w, r, http.StatusBadRequest, "missing_signature", "signature header is required")
	case errors.Is(err, pipeline.ErrInvalidSignature):
		WriteError(w, r, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
	case errors.Is(err, pipeline.ErrMissingSecret):
		// Server misconfiguration, not the caller's fault.
		WriteError(w, r, http.StatusInternalServerError, "missing_secret", "webhook secret is not configured")
	case errors.Is(err, pipeline.ErrMalformedPayload):
		WriteError(w, r, http.StatusBadRequest, "malformed_payload", "body is not valid JSON")
	case errors.As(err, &storageErr):
		WriteError(w, r, http.StatusInternalServerError, "storage_failure", "catalog write failed")
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
