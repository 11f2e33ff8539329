// Package sqlitestore is a local bucket backend: raw record payloads per
// day-key in a SQLite table. Useful where no Redis is reachable; the read
// semantics mirror the Redis list (arrival order, missing day is empty).
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"korexdash/internal/bucket"
	"korexdash/internal/core"
)

type Store struct {
	db *sql.DB
}

var _ bucket.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append stores one raw record payload in the day's bucket. The payload is
// decoded with the same fallback chains as the Redis tier, so any of the
// observed field spellings round-trip.
func (s *Store) Append(ctx context.Context, day time.Time, payload []byte) error {
	if !json.Valid(payload) {
		return fmt.Errorf("append to %s: %w", bucket.Key(day), core.ErrMalformedResponse)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transaction_logs (bucket_key, payload) VALUES (?, ?)`,
		bucket.Key(day), string(payload))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// PutKeyed stores one raw record payload under a full record key for Lookup.
func (s *Store) PutKeyed(ctx context.Context, key string, payload []byte) error {
	if !json.Valid(payload) {
		return fmt.Errorf("put %s: %w", key, core.ErrMalformedResponse)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transaction_records (record_key, payload) VALUES (?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET payload = excluded.payload`,
		key, string(payload))
	if err != nil {
		return fmt.Errorf("insert keyed record: %w", err)
	}
	return nil
}

func (s *Store) Records(ctx context.Context, day time.Time) ([]core.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM transaction_logs WHERE bucket_key = ? ORDER BY id`,
		bucket.Key(day))
	if err != nil {
		return nil, fmt.Errorf("query bucket: %w", err)
	}
	defer rows.Close()

	var records []core.TransactionRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			continue
		}
		records = append(records, core.DecodeRecord(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bucket: %w", err)
	}
	return records, nil
}

func (s *Store) Lookup(ctx context.Context, key string) (*core.TransactionRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM transaction_records WHERE record_key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	rec := core.DecodeRecord(m)
	return &rec, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
