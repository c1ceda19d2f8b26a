package httpapi

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"jobsync-engine/internal/config"
	"jobsync-engine/internal/registration"
	"jobsync-engine/internal/secrets"
)

// RegistrationHandler drives the outbound registration client from the
// local API and persists the returned webhook id in the data dir.
type RegistrationHandler struct {
	CfgVal  *atomic.Value // stores config.Config
	DataDir string

	// NewClient is swappable for tests; defaults to registration.NewClient.
	NewClient func(baseURL, token string) *registration.Client
}

func (h RegistrationHandler) client() (*registration.Client, config.Config, bool, string) {
	cfg := h.CfgVal.Load().(config.Config)
	if cfg.Registration.BaseURL == "" {
		return nil, cfg, false, "registration.base_url is not configured"
	}
	token, err := secrets.GetRegistrationToken(cfg.Registration.KeyringAccount)
	if err != nil {
		return nil, cfg, false, "registration token is not available"
	}
	mk := h.NewClient
	if mk == nil {
		mk = registration.NewClient
	}
	return mk(cfg.Registration.BaseURL, token), cfg, true, ""
}

func (h RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, ok := registration.LoadState(h.DataDir)
	if !ok {
		writeJSON(w, map[string]any{"registered": false})
		return
	}
	writeJSON(w, map[string]any{"registered": true, "state": st})
}

func (h RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	client, cfg, ok, reason := h.client()
	if !ok {
		WriteError(w, r, http.StatusConflict, "not_configured", reason)
		return
	}
	if cfg.Registration.WebhookURL == "" {
		WriteError(w, r, http.StatusConflict, "not_configured", "registration.webhook_url is not configured")
		return
	}

	id, err := client.Register(r.Context(), cfg.Registration.WebhookURL, cfg.Registration.Events)
	if err != nil {
		h.remoteFailure(w, r, err)
		return
	}

	st := registration.State{
		WebhookID:    id,
		WebhookURL:   cfg.Registration.WebhookURL,
		Events:       cfg.Registration.Events,
		RegisteredAt: time.Now().UTC(),
	}
	if err := registration.SaveState(h.DataDir, st); err != nil {
		// Registered remotely but not recorded locally; report it loudly.
		WriteError(w, r, http.StatusInternalServerError, "state_save_failed",
			"registered as "+id+" but saving local state failed")
		return
	}
	writeJSON(w, map[string]any{"ok": true, "webhook_id": id})
}

func (h RegistrationHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	st, ok := registration.LoadState(h.DataDir)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_registered", "no saved registration")
		return
	}
	client, _, okc, reason := h.client()
	if !okc {
		WriteError(w, r, http.StatusConflict, "not_configured", reason)
		return
	}

	if err := client.Unregister(r.Context(), st.WebhookID); err != nil {
		h.remoteFailure(w, r, err)
		return
	}
	if err := registration.ClearState(h.DataDir); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "state_clear_failed", "unregistered but clearing local state failed")
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h RegistrationHandler) remoteFailure(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *registration.HTTPError
	var transportErr *registration.TransportError
	switch {
	case errors.As(err, &httpErr):
		WriteError(w, r, http.StatusBadGateway, "remote_status", httpErr.Error())
	case errors.As(err, &transportErr):
		WriteError(w, r, http.StatusBadGateway, "remote_transport", transportErr.Error())
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
