package images

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Ledger records which image slots were materialized from which URLs so
// re-delivery of an unchanged record can skip the network. It is an
// optimization only: a nil *Ledger is valid and simply always refetches.
type Ledger struct {
	pool *sql.DB
}

// URLKey is the stable fingerprint of a remote image URL.
func URLKey(u string) string {
	h := sha256.Sum256([]byte(u))
	return hex.EncodeToString(h[:])
}

func OpenLedger(path string) (*Ledger, error) {
	// modernc sqlite DSN: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(1) // sqlite wants a single writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	l := &Ledger{pool: pool}
	if err := l.migrate(); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.pool == nil {
		return nil
	}
	return l.pool.Close()
}

func (l *Ledger) migrate() error {
	tx, err := l.pool.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS assets (
  file TEXT PRIMARY KEY,
  url_key TEXT NOT NULL,
  content_type TEXT NOT NULL DEFAULT '',
  bytes INTEGER NOT NULL DEFAULT 0,
  fetched_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_assets_url_key
ON assets(url_key);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

// Lookup returns the recorded URL key for a materialized file, if any.
func (l *Ledger) Lookup(ctx context.Context, file string) (urlKey string, ok bool) {
	if l == nil {
		return "", false
	}
	err := l.pool.QueryRowContext(ctx,
		`SELECT url_key FROM assets WHERE file = ? LIMIT 1;`, file,
	).Scan(&urlKey)
	if err != nil {
		return "", false
	}
	return urlKey, true
}

// Record remembers that file now holds the bytes of the URL behind
// urlKey.
func (l *Ledger) Record(ctx context.Context, file, urlKey, contentType string, size int) error {
	if l == nil {
		return nil
	}
	_, err := l.pool.ExecContext(ctx, `
INSERT OR REPLACE INTO assets(file, url_key, content_type, bytes, fetched_at)
VALUES(?,?,?,?,?);`,
		file, urlKey, contentType, size, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Forget drops the row for a deleted asset file.
func (l *Ledger) Forget(ctx context.Context, file string) error {
	if l == nil {
		return nil
	}
	_, err := l.pool.ExecContext(ctx, `DELETE FROM assets WHERE file = ?;`, file)
	return err
}
