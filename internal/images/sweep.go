package images

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"regexp"
)

var assetNameRE = regexp.MustCompile(`^job-(.+)-\d+\.[a-z]+$`)

// Sweep deletes materialized files whose job is gone from the catalog and
// prunes their ledger rows. keep reports whether a job id is still live.
func (m *Materializer) Sweep(ctx context.Context, keep func(jobID string) bool) (removed int, err error) {
	entries, err := os.ReadDir(m.AssetRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := assetNameRE.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		if keep(match[1]) {
			continue
		}
		if err := os.Remove(filepath.Join(m.AssetRoot, e.Name())); err != nil {
			log.Printf("[images] sweep remove failed file=%s err=%v", e.Name(), err)
			continue
		}
		_ = m.Ledger.Forget(ctx, e.Name())
		removed++
	}
	return removed, nil
}
