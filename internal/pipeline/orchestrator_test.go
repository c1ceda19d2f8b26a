package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"

	"jobsync-engine/internal/catalog"
	"jobsync-engine/internal/images"
	"jobsync-engine/internal/signature"
)

const testSecret = "shared-secret"

func newOrchestrator(t *testing.T) (*Orchestrator, *catalog.Store) {
	t.Helper()
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	o := New(func() (string, error) { return testSecret, nil }, cat, nil)
	return o, cat
}

func signedBody(body string) ([]byte, string) {
	raw := []byte(body)
	return raw, signature.Sign(testSecret, raw)
}

func TestProcess_CreatedEndToEnd(t *testing.T) {
	o, cat := newOrchestrator(t)

	raw, sig := signedBody(`{"event":"job.created","data":{"job_id":"42","job_title":"Roof Repair"},"timestamp":1756600000,"site_id":"s1"}`)
	res, err := o.Process(context.Background(), raw, sig)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	rec, ok := cat.Find("42")
	if !ok {
		t.Fatal("record not in catalog")
	}
	if rec.Slug != "roof-repair" {
		t.Errorf("slug = %q", rec.Slug)
	}
	want := []string{"/jobs/roof-repair", "/jobs"}
	if !reflect.DeepEqual(res.Invalidations, want) {
		t.Errorf("invalidations = %v, want %v", res.Invalidations, want)
	}
}

func TestProcess_DeletedEndToEnd(t *testing.T) {
	o, cat := newOrchestrator(t)

	raw, sig := signedBody(`{"event":"job.created","data":{"job_id":"42","job_title":"Roof Repair"}}`)
	if _, err := o.Process(context.Background(), raw, sig); err != nil {
		t.Fatal(err)
	}

	raw, sig = signedBody(`{"event":"job.deleted","data":{"job_id":"42"}}`)
	res, err := o.Process(context.Background(), raw, sig)
	if err != nil {
		t.Fatalf("process delete: %v", err)
	}
	if cat.Has("42") {
		t.Error("record survived deletion")
	}
	want := []string{"/jobs"}
	if !reflect.DeepEqual(res.Invalidations, want) {
		t.Errorf("invalidations = %v, want %v", res.Invalidations, want)
	}
}

func TestProcess_UpdateReplacesAndReslugs(t *testing.T) {
	o, cat := newOrchestrator(t)
	ctx := context.Background()

	raw, sig := signedBody(`{"event":"job.created","data":{"job_id":"42","job_title":"Roof Repair"}}`)
	if _, err := o.Process(ctx, raw, sig); err != nil {
		t.Fatal(err)
	}
	raw, sig = signedBody(`{"event":"job.updated","data":{"job_id":"42","job_title":"Roof Replacement"}}`)
	res, err := o.Process(ctx, raw, sig)
	if err != nil {
		t.Fatal(err)
	}

	if n := len(cat.All()); n != 1 {
		t.Fatalf("catalog has %d records, want 1", n)
	}
	// routine title edit moved the public URL; that is the observed,
	// preserved behavior
	if res.Slug != "roof-replacement" {
		t.Errorf("slug = %q", res.Slug)
	}
	if _, ok := cat.FindBySlug("roof-repair"); ok {
		t.Error("stale slug still resolves")
	}
}

func TestProcess_UnknownKindIsNoOp(t *testing.T) {
	o, cat := newOrchestrator(t)

	raw, sig := signedBody(`{"event":"job.suspended","data":{"job_id":"42","job_title":"X"}}`)
	res, err := o.Process(context.Background(), raw, sig)
	if err != nil {
		t.Fatalf("unknown kind must not error: %v", err)
	}
	if !res.NoOp {
		t.Error("expected a no-op result")
	}
	if len(res.Invalidations) != 0 {
		t.Errorf("no-op produced invalidations: %v", res.Invalidations)
	}
	if len(cat.All()) != 0 {
		t.Error("no-op touched the catalog")
	}
}

func TestProcess_Rejections(t *testing.T) {
	o, _ := newOrchestrator(t)
	ctx := context.Background()
	raw, sig := signedBody(`{"event":"job.created","data":{"job_id":"1","job_title":"A"}}`)

	cases := []struct {
		name string
		body []byte
		sig  string
		want error
	}{
		{"missing signature", raw, "", ErrMissingSignature},
		{"tampered body", []byte(string(raw) + " "), sig, ErrInvalidSignature},
		{"garbage signature", raw, "sha256=deadbeef", ErrInvalidSignature},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := o.Process(ctx, tc.body, tc.sig); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestProcess_MalformedAfterValidSignature(t *testing.T) {
	o, _ := newOrchestrator(t)
	raw := []byte(`{"event": broken`)
	sig := signature.Sign(testSecret, raw)
	if _, err := o.Process(context.Background(), raw, sig); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("got %v, want ErrMalformedPayload", err)
	}
}

func TestProcess_MissingSecret(t *testing.T) {
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	o := New(func() (string, error) { return "", errors.New("keyring empty") }, cat, nil)

	raw, sig := signedBody(`{"event":"job.created","data":{"job_id":"1"}}`)
	if _, err := o.Process(context.Background(), raw, sig); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("got %v, want ErrMissingSecret", err)
	}
}

func TestProcess_MaterializesImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.png" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	mat := images.NewMaterializer(t.TempDir(), nil, nil)
	o := New(func() (string, error) { return testSecret, nil }, cat, mat)

	raw, sig := signedBody(`{"event":"job.created","data":{"job_id":"42","job_title":"Roof Repair","images":["` +
		srv.URL + `/ok.png","` + srv.URL + `/gone.jpg"]}}`)
	if _, err := o.Process(context.Background(), raw, sig); err != nil {
		t.Fatal(err)
	}

	rec, _ := cat.Find("42")
	if len(rec.Images) != 2 {
		t.Fatalf("images = %v", rec.Images)
	}
	if rec.Images[0] != "job-42-0.png" {
		t.Errorf("first image = %q", rec.Images[0])
	}
	if rec.Images[1] != srv.URL+"/gone.jpg" {
		t.Errorf("failed image should keep the remote URL, got %q", rec.Images[1])
	}
}
