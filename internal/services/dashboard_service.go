// Package services orchestrates the dashboard's data flows: proxied cloud
// fetches with short-lived caching, the concurrent overview fan-out, and
// the bucket-backed transaction queries.
package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"korexdash/internal/amqp"
	"korexdash/internal/bucket"
	"korexdash/internal/cache"
	"korexdash/internal/core"
	"korexdash/internal/log"
	"korexdash/internal/pipeline"
	"korexdash/internal/upstream"
)

// Cache sizing. A user looks at one day at a time, so small caches are
// plenty; the TTL keeps dashboard refreshes from hammering the cloud API.
const (
	cacheSize = 64
	cacheTTL  = 60 * time.Second
)

// DashboardService answers every data question the HTTP layer has. The
// bucket store and AMQP publisher are optional; a nil bucket disables the
// local transaction queries and a nil publisher disables anomaly digests.
type DashboardService struct {
	gateway   upstream.Gateway
	buckets   bucket.Store
	publisher *amqp.Client
	logger    *log.Logger

	logsCache     *cache.TTLCache[[]core.TransactionRecord]
	summaryCache  *cache.TTLCache[*core.UpstreamSummary]
	paymentsCache *cache.TTLCache[[]core.DeviceAccount]
}

func NewDashboardService(gateway upstream.Gateway, buckets bucket.Store, publisher *amqp.Client, logger *log.Logger) *DashboardService {
	return &DashboardService{
		gateway:       gateway,
		buckets:       buckets,
		publisher:     publisher,
		logger:        logger.WithComponent(log.ComponentDashboard),
		logsCache:     cache.New[[]core.TransactionRecord](cacheSize, cacheTTL),
		summaryCache:  cache.New[*core.UpstreamSummary](cacheSize, cacheTTL),
		paymentsCache: cache.New[[]core.DeviceAccount](cacheSize, cacheTTL),
	}
}

// Caches exposes the service's caches for background sweeping.
func (s *DashboardService) Caches() []cache.Sweepable {
	return []cache.Sweepable{s.logsCache, s.summaryCache, s.paymentsCache}
}

// Login proxies a credential check to the cloud validator.
func (s *DashboardService) Login(ctx context.Context, creds upstream.Credentials) (*core.UserProfile, error) {
	profile, err := s.gateway.ValidateUser(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user validated", log.FieldUser, profile.Email)
	return profile, nil
}

func fetchKey(q upstream.LogQuery) string {
	return fmt.Sprintf("%s|%s|%s", q.User, q.Date.Format("2006-01-02"), q.DeviceID)
}

// Logs returns the day's transaction records, from cache when fresh. A
// successful fetch with anomalies present also emits an anomaly digest.
func (s *DashboardService) Logs(ctx context.Context, q upstream.LogQuery) ([]core.TransactionRecord, error) {
	key := fetchKey(q)
	if records, ok := s.logsCache.Get(key); ok {
		return records, nil
	}

	records, err := s.gateway.FetchLogs(ctx, q)
	if err != nil {
		return nil, err
	}
	s.logsCache.Set(key, records)
	s.publishDigest(ctx, q, records)
	return records, nil
}

func (s *DashboardService) publishDigest(ctx context.Context, q upstream.LogQuery, records []core.TransactionRecord) {
	kpi := pipeline.Aggregate(records)
	if kpi.Anomalies == 0 {
		return
	}
	digest := amqp.NewAnomalyDigest(q.User, q.Date, kpi)
	if err := s.publisher.PublishAnomalyDigest(ctx, digest); err != nil {
		// Digests are advisory. Never fail the fetch over them.
		s.logger.WarnContext(ctx, "anomaly digest not published",
			log.FieldUser, q.User, log.FieldError, err)
	}
}

// Summary returns the provider's precomputed KPI summary for the day.
func (s *DashboardService) Summary(ctx context.Context, q upstream.LogQuery) (*core.UpstreamSummary, error) {
	key := fetchKey(q)
	if summary, ok := s.summaryCache.Get(key); ok {
		return summary, nil
	}

	summary, err := s.gateway.FetchSummary(ctx, q)
	if err != nil {
		return nil, err
	}
	s.summaryCache.Set(key, summary)
	return summary, nil
}

// DevicePayments returns the user's DVR billing list.
func (s *DashboardService) DevicePayments(ctx context.Context, user string) ([]core.DeviceAccount, error) {
	if accounts, ok := s.paymentsCache.Get(user); ok {
		return accounts, nil
	}

	accounts, err := s.gateway.FetchDevicePayments(ctx, user)
	if err != nil {
		return nil, err
	}
	s.paymentsCache.Set(user, accounts)
	return accounts, nil
}

// Overview bundles the three upstream fetches a dashboard load needs. Each
// slot carries its own error so one failed fetch never hides the others.
type Overview struct {
	Logs        []core.TransactionRecord
	LogsErr     error
	Summary     *core.UpstreamSummary
	SummaryErr  error
	Payments    []core.DeviceAccount
	PaymentsErr error
}

// Overview fetches logs, summary and payments concurrently. The returned
// error is non-nil only when the context is cancelled; per-fetch failures
// land in the corresponding slot.
func (s *DashboardService) Overview(ctx context.Context, q upstream.LogQuery) (*Overview, error) {
	var ov Overview

	parent := ctx
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov.Logs, ov.LogsErr = s.Logs(ctx, q)
		return nil
	})
	g.Go(func() error {
		ov.Summary, ov.SummaryErr = s.Summary(ctx, q)
		return nil
	})
	g.Go(func() error {
		ov.Payments, ov.PaymentsErr = s.DevicePayments(ctx, q.User)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The group context is already cancelled once Wait returns; only the
	// caller's context tells us whether the fan-out itself was cut short.
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return &ov, nil
}
