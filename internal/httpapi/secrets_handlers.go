package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"jobsync-engine/internal/config"
	"jobsync-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config

	// Store and Erase default to the OS-keyring-backed secrets package;
	// tests swap them out.
	Store func(account, value string) error
	Erase func(account string) error
}

type secretBody struct {
	Value string `json:"value"`
}

func (h SecretsHandler) store() func(account, value string) error {
	if h.Store != nil {
		return h.Store
	}
	return secrets.Set
}

func (h SecretsHandler) erase() func(account string) error {
	if h.Erase != nil {
		return h.Erase
	}
	return secrets.Delete
}

func (h SecretsHandler) webhookAccount() string {
	cfg := h.CfgVal.Load().(config.Config)
	return secrets.WebhookAccount(cfg.Webhook.KeyringAccount)
}

func (h SecretsHandler) registrationAccount() string {
	cfg := h.CfgVal.Load().(config.Config)
	return secrets.RegistrationAccount(cfg.Registration.KeyringAccount)
}

func (h SecretsHandler) SetWebhookSecret(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.webhookAccount())
}

func (h SecretsHandler) SetRegistrationToken(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.registrationAccount())
}

func (h SecretsHandler) DeleteWebhookSecret(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.webhookAccount())
}

func (h SecretsHandler) DeleteRegistrationToken(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.registrationAccount())
}

func (h SecretsHandler) set(w http.ResponseWriter, r *http.Request, account string) {
	var body secretBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Value) == "" {
		WriteError(w, r, http.StatusBadRequest, "empty_value", "value is required")
		return
	}
	if err := h.store()(account, body.Value); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keyring_failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h SecretsHandler) delete(w http.ResponseWriter, r *http.Request, account string) {
	if err := h.erase()(account); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keyring_failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}
