// Package catalog is the durable job catalog: a JSON array of records on
// disk, rewritten in full after every mutation.
package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"jobsync-engine/internal/domain"
	"jobsync-engine/internal/slug"
)

// StorageError wraps a failed catalog write. Read failures never produce
// one; an unreadable catalog opens empty instead.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "catalog: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Store keeps the catalog in memory and mirrors every mutation to the
// file synchronously. All mutations are serialized: an in-process mutex
// plus a sibling .lock file (flock) against other processes touching the
// same data dir.
type Store struct {
	path string

	mu      sync.Mutex
	fl      *flock.Flock
	records []domain.JobRecord
}

// Open loads the catalog at path. A missing or unreadable file is an
// empty catalog, not an error.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		fl:   flock.New(path + ".lock"),
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[catalog] unreadable catalog at %s, starting empty: %v", path, err)
		}
		return s, nil
	}
	if err := json.Unmarshal(b, &s.records); err != nil {
		log.Printf("[catalog] corrupt catalog at %s, starting empty: %v", path, err)
		s.records = nil
	}
	return s, nil
}

// Upsert stores rec under its JobID: in-place replace when the id exists,
// append otherwise. The slug is always recomputed from the incoming
// title, so a title edit moves the record's public URL. Returns the
// record as stored.
func (s *Store) Upsert(rec domain.JobRecord) (domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Slug = slug.Make(rec.Title)

	replaced := false
	for i := range s.records {
		if s.records[i].JobID == rec.JobID {
			s.records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		s.records = append(s.records, rec)
	}

	if err := s.persistLocked(); err != nil {
		return domain.JobRecord{}, err
	}
	return rec, nil
}

// Remove deletes the record with jobID. Absence is a no-op; the file is
// only rewritten when something actually came out.
func (s *Store) Remove(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := false
	for _, r := range s.records {
		if r.JobID == jobID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	if !removed {
		return nil
	}
	return s.persistLocked()
}

// FindBySlug returns the first record in catalog order whose slug
// matches. Slug uniqueness is not enforced anywhere, so on a collision
// the earliest-inserted record wins.
func (s *Store) FindBySlug(slg string) (domain.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Slug == slg {
			return r, true
		}
	}
	return domain.JobRecord{}, false
}

// Find returns the record with jobID.
func (s *Store) Find(jobID string) (domain.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.JobID == jobID {
			return r, true
		}
	}
	return domain.JobRecord{}, false
}

// All returns the catalog in insertion order. The slice is a copy.
func (s *Store) All() []domain.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.JobRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Has reports whether jobID is in the catalog.
func (s *Store) Has(jobID string) bool {
	_, ok := s.Find(jobID)
	return ok
}

// persistLocked rewrites the whole file under the cross-process lock.
// Caller holds s.mu.
func (s *Store) persistLocked() error {
	if err := s.fl.Lock(); err != nil {
		return &StorageError{Op: "lock", Err: err}
	}
	defer func() { _ = s.fl.Unlock() }()

	b, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if s.records == nil {
		b = []byte("[]")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Err: err}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &StorageError{Op: "rename", Err: fmt.Errorf("%s: %w", tmp, err)}
	}
	return nil
}
