package services

import (
	"context"
	"fmt"
	"time"

	"korexdash/internal/bucket"
	"korexdash/internal/core"
	"korexdash/internal/log"
	"korexdash/internal/pipeline"
)

// ErrNoBucketStore is returned by the local transaction queries when the
// service was built without a bucket backend.
var ErrNoBucketStore = fmt.Errorf("no bucket store configured")

// TransactionQuery selects and pages a day's records from the bucket store.
type TransactionQuery struct {
	Day      time.Time
	Criteria pipeline.Criteria
	Page     int
	PageSize int
}

// Transactions lists one day's bucket records filtered, sorted most recent
// first, and paginated.
func (s *DashboardService) Transactions(ctx context.Context, q TransactionQuery) (*pipeline.Page, error) {
	if s.buckets == nil {
		return nil, ErrNoBucketStore
	}

	records, err := s.buckets.Records(ctx, q.Day)
	if err != nil {
		return nil, fmt.Errorf("read bucket %s: %w", bucket.Key(q.Day), err)
	}

	filtered := pipeline.Filter(records, q.Criteria)
	sorted := pipeline.Sort(filtered)
	page := pipeline.Paginate(sorted, q.Page, q.PageSize)

	s.logger.DebugContext(ctx, "bucket query served",
		log.FieldBucketKey, bucket.Key(q.Day),
		log.FieldRecords, page.TotalCount)
	return &page, nil
}

// KPIs aggregates one day's full bucket, ignoring any filters the caller's
// transaction view may have applied.
func (s *DashboardService) KPIs(ctx context.Context, day time.Time) (core.KPISummary, error) {
	if s.buckets == nil {
		return core.KPISummary{}, ErrNoBucketStore
	}

	records, err := s.buckets.Records(ctx, day)
	if err != nil {
		return core.KPISummary{}, fmt.Errorf("read bucket %s: %w", bucket.Key(day), err)
	}
	return pipeline.Aggregate(records), nil
}

// Transaction looks up a single record by its full key. A nil record with
// nil error means not found.
func (s *DashboardService) Transaction(ctx context.Context, key string) (*core.TransactionRecord, error) {
	if s.buckets == nil {
		return nil, ErrNoBucketStore
	}
	return s.buckets.Lookup(ctx, key)
}

// Health pings the bucket store. Without one, the service is trivially up.
func (s *DashboardService) Health(ctx context.Context) error {
	if s.buckets == nil {
		return nil
	}
	return s.buckets.Ping(ctx)
}
