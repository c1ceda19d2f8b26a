package httpapi

import (
	"net/http"
	"strings"

	"jobsync-engine/internal/catalog"
)

// JobsHandler exposes the read-only catalog views the rendering layer
// consumes.
type JobsHandler struct {
	Catalog *catalog.Store
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Catalog.All())
}

// GetBySlug expects /jobs/{slug}. On a slug collision the earliest
// record wins; see catalog.FindBySlug.
func (h JobsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slg := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/jobs/"))
	if slg == "" || strings.Contains(slg, "/") {
		WriteError(w, r, http.StatusBadRequest, "invalid_slug", "invalid slug")
		return
	}
	rec, ok := h.Catalog.FindBySlug(slg)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "no job with that slug")
		return
	}
	writeJSON(w, rec)
}
