package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"jobsync-engine/internal/catalog"
	"jobsync-engine/internal/config"
	"jobsync-engine/internal/events"
	"jobsync-engine/internal/httpapi"
	"jobsync-engine/internal/images"
	"jobsync-engine/internal/pipeline"
	"jobsync-engine/internal/scheduler"
	"jobsync-engine/internal/secrets"
)

func main() {
	// Data dir: env wins so the deploy tooling can point at a volume.
	dataDir := os.Getenv("JOBSYNC_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable.
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	raw, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, vr := config.NormalizeAndValidate(raw)
	if !vr.OK() {
		log.Fatalf("config invalid (%s): %v", userCfgPath, vr.Errors)
	}
	for _, warn := range vr.Warnings {
		log.Printf("level=warn msg=\"config\" detail=%q", warn)
	}
	cfgVal.Store(cfg)

	// The webhook secret must be resolvable at startup; a deployment
	// without one would silently reject every notification.
	if _, err := secrets.GetWebhookSecret(cfg.Webhook.KeyringAccount); err != nil {
		log.Fatalf("webhook secret unavailable: %v (set it in the keychain or via %s)",
			err, secrets.EnvWebhookSecret)
	}

	cat, err := catalog.Open(filepath.Join(dataDir, "catalog.json"))
	if err != nil {
		log.Fatal(err)
	}

	ledger, err := images.OpenLedger(filepath.Join(dataDir, "assets.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer ledger.Close()

	assetDir := cfg.Assets.Dir
	if !filepath.IsAbs(assetDir) {
		assetDir = filepath.Join(dataDir, assetDir)
	}

	limiter := images.NewHostLimiter(cfg.Assets.HostPerSec, cfg.Assets.HostBurst)
	mat := images.NewMaterializer(assetDir, limiter, ledger)
	if cfg.Assets.MaxBytes > 0 {
		mat.MaxBytes = cfg.Assets.MaxBytes
	}

	hub := events.NewHub()

	// Secret resolution rereads config + keyring per request so rotation
	// does not need a restart.
	secretSource := func() (string, error) {
		cur := cfgVal.Load().(config.Config)
		return secrets.GetWebhookSecret(cur.Webhook.KeyringAccount)
	}
	orch := pipeline.New(secretSource, cat, mat)

	mux := httpapi.NewMux(httpapi.Deps{
		Catalog:     cat,
		Pipeline:    orch,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		DataDir:     dataDir,
		AssetDir:    assetDir,
		SigHeader:   cfg.Webhook.SignatureHeader,
	})

	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sweep := time.Duration(cfg.Assets.SweepMinutes) * time.Minute
		scheduler.Every(gctx, "asset-sweep", sweep, func(ctx context.Context) error {
			removed, err := mat.Sweep(ctx, cat.Has)
			if removed > 0 {
				log.Printf("[asset-sweep] removed=%d", removed)
			}
			return err
		})
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
