package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"jobsync-engine/internal/catalog"
	"jobsync-engine/internal/domain"
)

func newJobsHandler(t *testing.T) (JobsHandler, *catalog.Store) {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	return JobsHandler{Catalog: cat}, cat
}

func TestList_ReturnsCatalogOrder(t *testing.T) {
	h, cat := newJobsHandler(t)
	_, _ = cat.Upsert(domain.JobRecord{JobID: "1", Title: "Roof Repair"})
	_, _ = cat.Upsert(domain.JobRecord{JobID: "2", Title: "Gutter Cleaning"})

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	var got []domain.JobRecord
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].JobID != "1" || got[1].JobID != "2" {
		t.Errorf("list = %+v", got)
	}
}

func TestGetBySlug(t *testing.T) {
	h, cat := newJobsHandler(t)
	_, _ = cat.Upsert(domain.JobRecord{JobID: "1", Title: "Roof Repair"})

	w := httptest.NewRecorder()
	h.GetBySlug(w, httptest.NewRequest(http.MethodGet, "/jobs/roof-repair", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rec domain.JobRecord
	_ = json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.JobID != "1" {
		t.Errorf("rec = %+v", rec)
	}

	w = httptest.NewRecorder()
	h.GetBySlug(w, httptest.NewRequest(http.MethodGet, "/jobs/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing slug: status = %d, want 404", w.Code)
	}
}
