// Package bucket defines the daily transaction bucket port. Buckets are
// created and expired by the upstream producer; this side only reads them.
package bucket

import (
	"context"
	"fmt"
	"time"

	"korexdash/internal/core"
)

// Store reads daily buckets of transaction records.
type Store interface {
	// Records returns every record in the bucket for the given calendar day,
	// in arrival order. A missing bucket yields an empty slice, not an error.
	Records(ctx context.Context, day time.Time) ([]core.TransactionRecord, error)

	// Lookup fetches a single record by its full record key. Returns
	// (nil, nil) when the key does not exist.
	Lookup(ctx context.Context, key string) (*core.TransactionRecord, error)

	// Ping checks store reachability for health reporting.
	Ping(ctx context.Context) error
}

// Key builds the bucket address for a calendar day: DD:MM:YYYY:logs.
func Key(day time.Time) string {
	return fmt.Sprintf("%02d:%02d:%04d:logs", day.Day(), int(day.Month()), day.Year())
}
