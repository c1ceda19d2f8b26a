package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, dedupes lists, and returns a
// normalized copy plus everything wrong or suspicious about it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	// ---- Defaults ----

	if strings.TrimSpace(out.Webhook.SignatureHeader) == "" {
		out.Webhook.SignatureHeader = "X-Jobsite-Signature"
	}
	if strings.TrimSpace(out.Assets.Dir) == "" {
		out.Assets.Dir = "assets"
	}
	if out.Assets.HostPerSec <= 0 {
		out.Assets.HostPerSec = 2.0
	}
	if out.Assets.HostBurst <= 0 {
		out.Assets.HostBurst = 4
	}
	if out.Assets.SweepMinutes <= 0 {
		out.Assets.SweepMinutes = 60
	}
	out.Registration.Events = trimList(out.Registration.Events)
	if len(out.Registration.Events) == 0 {
		out.Registration.Events = []string{"job.created", "job.updated", "job.deleted"}
	}

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.Assets.MaxBytes < 0 {
		res.addErr("assets.max_bytes must be >= 0")
	}
	if out.Assets.SweepMinutes < 5 {
		res.addWarn("assets.sweep_minutes is very low (%d); the sweep rereads the whole asset dir.", out.Assets.SweepMinutes)
	}

	if raw := strings.TrimSpace(out.Registration.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("registration.base_url must be an absolute URL")
		}
	}
	if raw := strings.TrimSpace(out.Registration.WebhookURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("registration.webhook_url must be an absolute URL")
		}
	}
	if out.Registration.BaseURL != "" && out.Registration.WebhookURL == "" {
		res.addWarn("registration.base_url is set but registration.webhook_url is empty; registering will fail.")
	}

	return out, res
}
