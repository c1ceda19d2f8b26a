// Package pipeline runs one signed notification through
// verify -> parse -> dispatch -> invalidate.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"jobsync-engine/internal/catalog"
	"jobsync-engine/internal/domain"
	"jobsync-engine/internal/images"
	"jobsync-engine/internal/payload"
	"jobsync-engine/internal/signature"
)

// ListingPath is the logical page that goes stale on every catalog
// mutation. Record pages live under it, keyed by slug.
const ListingPath = "/jobs"

// SecretSource resolves the shared webhook secret at processing time, so
// rotating it in the keyring takes effect without a restart.
type SecretSource func() (string, error)

// Result is the outcome of a successfully processed notification.
// Invalidations is the set of logical pages the rendering layer must
// treat as stale; the pipeline only signals, it never renders.
type Result struct {
	Event         string
	JobID         string
	Slug          string
	NoOp          bool
	Invalidations []string
}

type Orchestrator struct {
	Secret  SecretSource
	Catalog *catalog.Store
	Images  *images.Materializer
}

func New(secret SecretSource, cat *catalog.Store, mat *images.Materializer) *Orchestrator {
	return &Orchestrator{Secret: secret, Catalog: cat, Images: mat}
}

// Process authenticates rawBody against providedSig, decodes it, and
// applies its effect to the catalog. Rejections come back as the
// classified errors in this package; a write failure after a successful
// mutation surfaces as *catalog.StorageError.
func (o *Orchestrator) Process(ctx context.Context, rawBody []byte, providedSig string) (Result, error) {
	if strings.TrimSpace(providedSig) == "" {
		return Result{}, ErrMissingSignature
	}

	secret, err := o.Secret()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMissingSecret, err)
	}
	if err := signature.Verify(rawBody, providedSig, secret); err != nil {
		return Result{}, err
	}

	evt, err := payload.Parse(rawBody)
	if err != nil {
		return Result{}, err
	}

	return o.dispatch(ctx, evt)
}

func (o *Orchestrator) dispatch(ctx context.Context, evt domain.WebhookEvent) (Result, error) {
	res := Result{Event: evt.Event, JobID: evt.Data.JobID}

	// Unknown kinds are inert, not errors.
	if !evt.Mutates() {
		res.NoOp = true
		return res, nil
	}

	switch evt.Event {
	case domain.EventJobCreated, domain.EventJobUpdated:
		rec := evt.Data
		if len(rec.Images) > 0 && o.Images != nil {
			rec.Images = o.Images.MaterializeAll(ctx, rec.Images, rec.JobID)
		}
		stored, err := o.Catalog.Upsert(rec)
		if err != nil {
			return Result{}, err
		}
		res.Slug = stored.Slug
		res.Invalidations = []string{ListingPath + "/" + stored.Slug, ListingPath}

	case domain.EventJobDeleted:
		if err := o.Catalog.Remove(evt.Data.JobID); err != nil {
			return Result{}, err
		}
		res.Invalidations = []string{ListingPath}
	}

	return res, nil
}
