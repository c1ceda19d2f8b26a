package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeAndValidate_Defaults(t *testing.T) {
	var cfg Config
	cfg.App.Port = 38471

	out, vr := NormalizeAndValidate(cfg)
	if !vr.OK() {
		t.Fatalf("minimal config should validate: %v", vr.Errors)
	}
	if out.Webhook.SignatureHeader != "X-Jobsite-Signature" {
		t.Errorf("signature header default = %q", out.Webhook.SignatureHeader)
	}
	if out.Assets.Dir != "assets" || out.Assets.HostPerSec <= 0 || out.Assets.SweepMinutes <= 0 {
		t.Errorf("asset defaults not filled: %+v", out.Assets)
	}
	if len(out.Registration.Events) != 3 {
		t.Errorf("default events = %v", out.Registration.Events)
	}
}

func TestNormalizeAndValidate_Errors(t *testing.T) {
	var cfg Config
	cfg.App.Port = 0
	cfg.Registration.BaseURL = "not a url"

	_, vr := NormalizeAndValidate(cfg)
	if vr.OK() {
		t.Fatal("expected validation errors")
	}
	joined := strings.Join(vr.Errors, "\n")
	if !strings.Contains(joined, "app.port") || !strings.Contains(joined, "registration.base_url") {
		t.Errorf("errors = %v", vr.Errors)
	}
}

func TestNormalizeAndValidate_DedupesEvents(t *testing.T) {
	var cfg Config
	cfg.App.Port = 1
	cfg.Registration.Events = []string{" job.created ", "job.created", "job.deleted"}

	out, _ := NormalizeAndValidate(cfg)
	if len(out.Registration.Events) != 2 {
		t.Errorf("events = %v", out.Registration.Events)
	}
}

func TestSaveAtomicAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	var cfg Config
	cfg.App.Port = 38471
	cfg.Registration.BaseURL = "https://api.example.com"

	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.App.Port != 38471 || loaded.Registration.BaseURL != "https://api.example.com" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSaveAtomic_RejectsInvalid(t *testing.T) {
	var cfg Config // port 0
	if err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg); err == nil {
		t.Fatal("invalid config must not save")
	}
}

func TestEnsureUserConfig_CopiesDefaultOnce(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := filepath.Join(t.TempDir(), "default.yml")
	if err := os.WriteFile(defaultPath, []byte("app:\n  port: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	if err != nil {
		t.Fatal(err)
	}

	// user edits survive a second bootstrap
	if err := os.WriteFile(userPath, []byte("app:\n  port: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	again, err := EnsureUserConfig(dataDir, defaultPath)
	if err != nil {
		t.Fatal(err)
	}
	if again != userPath {
		t.Fatalf("path changed: %s vs %s", again, userPath)
	}
	cfg, err := Load(userPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Port != 2 {
		t.Error("bootstrap clobbered the user config")
	}
}
