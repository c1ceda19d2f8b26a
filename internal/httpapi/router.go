package httpapi

import (
	"net/http"
	"sync/atomic"

	"jobsync-engine/internal/catalog"
	"jobsync-engine/internal/config"
	"jobsync-engine/internal/events"
	"jobsync-engine/internal/pipeline"
)

type Deps struct {
	Catalog     *catalog.Store
	Pipeline    *pipeline.Orchestrator
	Hub         *events.Hub
	CfgVal      *atomic.Value // stores config.Config
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	DataDir     string
	AssetDir    string
	SigHeader   string
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// The one ingress that mutates anything.
	wh := WebhookHandler{Pipeline: d.Pipeline, Hub: d.Hub, SignatureHeader: d.SigHeader}
	mux.HandleFunc("/webhook", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: wh.Receive,
	}))

	// Read-only catalog views for the renderer.
	jh := JobsHandler{Catalog: d.Catalog}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.GetBySlug, // expects /jobs/{slug}
	}))

	// Materialized image files.
	mux.Handle("/assets/", http.StripPrefix("/assets/",
		http.FileServer(http.Dir(d.AssetDir))))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/webhook", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetWebhookSecret,
		http.MethodDelete: sh.DeleteWebhookSecret,
	}))
	mux.HandleFunc("/api/secrets/registration", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetRegistrationToken,
		http.MethodDelete: sh.DeleteRegistrationToken,
	}))

	// Registration with the remote service.
	rh := RegistrationHandler{CfgVal: d.CfgVal, DataDir: d.DataDir}
	mux.HandleFunc("/api/registration", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    rh.Get,
		http.MethodPost:   rh.Register,
		http.MethodDelete: rh.Unregister,
	}))

	// SSE invalidation stream.
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	return mux
}
