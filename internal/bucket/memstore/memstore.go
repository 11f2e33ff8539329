// Package memstore is an in-memory bucket store for tests and local runs
// without Redis.
package memstore

import (
	"context"
	"sync"
	"time"

	"korexdash/internal/bucket"
	"korexdash/internal/core"
)

type Store struct {
	mu      sync.Mutex
	buckets map[string][]core.TransactionRecord
	byKey   map[string]core.TransactionRecord
}

var _ bucket.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		buckets: make(map[string][]core.TransactionRecord),
		byKey:   make(map[string]core.TransactionRecord),
	}
}

// Add appends records to the bucket for the given day, preserving order.
func (s *Store) Add(day time.Time, records ...core.TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bucket.Key(day)
	s.buckets[key] = append(s.buckets[key], records...)
}

// Put stores a single record under its full record key for Lookup.
func (s *Store) Put(key string, rec core.TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[key] = rec
}

func (s *Store) Records(_ context.Context, day time.Time) ([]core.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.buckets[bucket.Key(day)]
	out := make([]core.TransactionRecord, len(src))
	copy(out, src)
	return out, nil
}

func (s *Store) Lookup(_ context.Context, key string) (*core.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) Ping(context.Context) error { return nil }
