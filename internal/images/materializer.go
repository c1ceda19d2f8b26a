// Package images fetches remote job images and persists local copies
// under deterministic names, degrading to the original URL per image when
// a fetch goes wrong.
package images

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const defaultMaxBytes = 10 << 20 // 10MB per image

// Extensions we trust straight from the URL path. slotExts is the fixed
// iteration order for scanning a slot's on-disk variants.
var slotExts = []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}

var allowedExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"svg":  true,
}

// Fallback mapping when the URL path gives nothing usable.
var extByContentType = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// Materializer writes remote images into AssetRoot as
// job-{jobID}-{index}.{ext}. Failures never escalate: the caller gets the
// original remote URL back and the catalog keeps a usable reference.
type Materializer struct {
	AssetRoot string
	Client    *http.Client
	Limiter   *HostLimiter
	Ledger    *Ledger
	MaxBytes  int64
}

func NewMaterializer(assetRoot string, limiter *HostLimiter, ledger *Ledger) *Materializer {
	return &Materializer{
		AssetRoot: assetRoot,
		Client:    &http.Client{Timeout: 15 * time.Second},
		Limiter:   limiter,
		Ledger:    ledger,
		MaxBytes:  defaultMaxBytes,
	}
}

// MaterializeAll fetches every image in order, index = position. Output
// order and length always match the input; a failed slot carries the
// remote URL instead of a local reference. Strictly sequential so the
// index-to-filename correspondence never reorders.
func (m *Materializer) MaterializeAll(ctx context.Context, imageURLs []string, jobID string) []string {
	if len(imageURLs) == 0 {
		return imageURLs
	}
	out := make([]string, len(imageURLs))
	for i, u := range imageURLs {
		out[i] = m.Materialize(ctx, u, jobID, i)
	}
	return out
}

// Materialize fetches one image and returns the local file name, or the
// original URL unchanged on any failure.
func (m *Materializer) Materialize(ctx context.Context, imageURL, jobID string, index int) string {
	local, err := m.fetch(ctx, imageURL, jobID, index)
	if err != nil {
		log.Printf("[images] keep remote url job=%s index=%d err=%v", jobID, index, err)
		return imageURL
	}
	return local
}

func (m *Materializer) fetch(ctx context.Context, imageURL, jobID string, index int) (string, error) {
	raw := strings.TrimSpace(imageURL)
	pu, err := url.Parse(raw)
	if err != nil || pu.Scheme == "" || pu.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", imageURL)
	}

	stem := fmt.Sprintf("job-%s-%d", jobID, index)
	urlKey := URLKey(raw)

	// Unchanged slot we already hold? Skip the network.
	if prev, ok := m.lookupExisting(ctx, stem); ok && prev.urlKey == urlKey {
		return prev.file, nil
	}

	if m.Limiter != nil {
		if err := m.Limiter.Wait(ctx, raw); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "jobsync-engine/1.0")
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("non-2xx response: %s", resp.Status)
	}

	max := m.MaxBytes
	if max <= 0 {
		max = defaultMaxBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, max+1))
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", fmt.Errorf("empty body")
	}
	if int64(len(b)) > max {
		return "", fmt.Errorf("image exceeds %d bytes", max)
	}

	ext := extFor(pu.Path, resp.Header.Get("Content-Type"))
	file := stem + "." + ext

	if err := os.MkdirAll(m.AssetRoot, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(m.AssetRoot, file), b, 0o644); err != nil {
		return "", err
	}

	if err := m.Ledger.Record(ctx, file, urlKey, resp.Header.Get("Content-Type"), len(b)); err != nil {
		log.Printf("[images] ledger record failed file=%s err=%v", file, err)
	}
	m.dropStaleVariants(ctx, stem, file)
	return file, nil
}

// dropStaleVariants removes superseded extensions of a slot, so a source
// that switched say png to webp leaves exactly one file and ledger row.
func (m *Materializer) dropStaleVariants(ctx context.Context, stem, current string) {
	for _, ext := range slotExts {
		file := stem + "." + ext
		if file == current {
			continue
		}
		p := filepath.Join(m.AssetRoot, file)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.Remove(p); err != nil {
			log.Printf("[images] remove stale variant failed file=%s err=%v", file, err)
			continue
		}
		if m.Ledger != nil {
			if err := m.Ledger.Forget(ctx, file); err != nil {
				log.Printf("[images] ledger forget failed file=%s err=%v", file, err)
			}
		}
	}
}

type existing struct {
	file   string
	urlKey string
}

// lookupExisting checks the ledger for any extension of the slot's stem
// and confirms the file is still on disk.
func (m *Materializer) lookupExisting(ctx context.Context, stem string) (existing, bool) {
	if m.Ledger == nil {
		return existing{}, false
	}
	for _, ext := range slotExts {
		file := stem + "." + ext
		key, ok := m.Ledger.Lookup(ctx, file)
		if !ok {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.AssetRoot, file)); err != nil {
			continue
		}
		return existing{file: file, urlKey: key}, true
	}
	return existing{}, false
}

// extFor resolves the file extension: URL path suffix first when it is in
// the allow-list, then the declared content type, then jpg.
func extFor(urlPath, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(urlPath), "."))
	if allowedExts[ext] {
		return ext
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if mapped, ok := extByContentType[ct]; ok {
		return mapped
	}
	return "jpg"
}
