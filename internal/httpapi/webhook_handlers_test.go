package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"jobsync-engine/internal/catalog"
	"jobsync-engine/internal/events"
	"jobsync-engine/internal/pipeline"
	"jobsync-engine/internal/signature"
)

const (
	testSecret = "hook-secret"
	sigHeader  = "X-Jobsite-Signature"
)

func newWebhookHandler(t *testing.T) (WebhookHandler, *catalog.Store, *events.Hub) {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	hub := events.NewHub()
	orch := pipeline.New(func() (string, error) { return testSecret, nil }, cat, nil)
	return WebhookHandler{Pipeline: orch, Hub: hub, SignatureHeader: sigHeader}, cat, hub
}

func post(h WebhookHandler, body, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	if sig != "" {
		req.Header.Set(sigHeader, sig)
	}
	w := httptest.NewRecorder()
	h.Receive(w, req)
	return w
}

func TestReceive_OK(t *testing.T) {
	h, cat, hub := newWebhookHandler(t)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	body := `{"event":"job.created","data":{"job_id":"42","job_title":"Roof Repair"}}`
	w := post(h, body, signature.Sign(testSecret, []byte(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp webhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || len(resp.Invalidated) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if !cat.Has("42") {
		t.Error("catalog not updated")
	}

	select {
	case msg := <-sub:
		if !strings.Contains(msg, events.TypeInvalidated) || !strings.Contains(msg, "/jobs/roof-repair") {
			t.Errorf("published event = %s", msg)
		}
	default:
		t.Error("no invalidation event published")
	}
}

func TestReceive_MissingSignatureHeaderIs400(t *testing.T) {
	h, _, _ := newWebhookHandler(t)
	w := post(h, `{"event":"job.created","data":{"job_id":"1"}}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestReceive_BadSignatureIs401(t *testing.T) {
	h, cat, _ := newWebhookHandler(t)
	body := `{"event":"job.created","data":{"job_id":"1","job_title":"A"}}`
	w := post(h, body, signature.Sign("wrong-secret", []byte(body)))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(cat.All()) != 0 {
		t.Error("rejected notification reached the catalog")
	}
}

func TestReceive_MalformedPayloadIs400(t *testing.T) {
	h, _, _ := newWebhookHandler(t)
	body := `{"event": nope`
	w := post(h, body, signature.Sign(testSecret, []byte(body)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestReceive_MissingSecretIs500(t *testing.T) {
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	orch := pipeline.New(func() (string, error) { return "", nil }, cat, nil)
	h := WebhookHandler{Pipeline: orch, SignatureHeader: sigHeader}

	body := `{"event":"job.created","data":{"job_id":"1"}}`
	w := post(h, body, signature.Sign(testSecret, []byte(body)))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var apiErr APIError
	_ = json.Unmarshal(w.Body.Bytes(), &apiErr)
	if apiErr.Error.Code != "missing_secret" {
		t.Errorf("code = %q", apiErr.Error.Code)
	}
	// never leak key material
	if strings.Contains(w.Body.String(), testSecret) {
		t.Error("response leaked the secret")
	}
}

func TestReceive_UnknownKindIs200NoOp(t *testing.T) {
	h, cat, hub := newWebhookHandler(t)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	body := `{"event":"job.archived","data":{"job_id":"1"}}`
	w := post(h, body, signature.Sign(testSecret, []byte(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp webhookResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.NoOp || len(resp.Invalidated) != 0 {
		t.Errorf("resp = %+v", resp)
	}
	if len(cat.All()) != 0 {
		t.Error("no-op touched the catalog")
	}
	select {
	case msg := <-sub:
		t.Errorf("no-op published an event: %s", msg)
	default:
	}
}
