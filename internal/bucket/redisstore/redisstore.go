// Package redisstore reads daily buckets from Redis, where the producer
// pushes one JSON object per record onto a list keyed DD:MM:YYYY:logs.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"korexdash/internal/bucket"
	"korexdash/internal/core"
)

type Store struct {
	client *redis.Client
}

var _ bucket.Store = (*Store)(nil)

// New connects to Redis at the given URL (redis://...). The connection is
// verified with a ping before the store is returned.
func New(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Records(ctx context.Context, day time.Time) ([]core.TransactionRecord, error) {
	key := bucket.Key(day)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	records := make([]core.TransactionRecord, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var m map[string]any
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			skipped++
			continue
		}
		records = append(records, core.DecodeRecord(m))
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unparseable bucket entries", "key", key, "skipped", skipped)
	}
	return records, nil
}

func (s *Store) Lookup(ctx context.Context, key string) (*core.TransactionRecord, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	rec := core.DecodeRecord(m)
	return &rec, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
