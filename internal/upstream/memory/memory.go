// Package memory provides an in-memory upstream.Gateway for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"korexdash/internal/core"
	"korexdash/internal/upstream"
)

// Gateway is a configurable fake. Zero value is usable: every login fails
// and every fetch returns empty results.
type Gateway struct {
	mu sync.Mutex

	Users    map[string]core.UserProfile // keyed by username, any password accepted
	Logs     map[string][]core.TransactionRecord
	Summary  map[string]*core.UpstreamSummary
	Payments map[string][]core.DeviceAccount

	// Per-operation error overrides.
	ValidateErr error
	LogsErr     error
	SummaryErr  error
	PaymentsErr error

	Calls []string
}

var _ upstream.Gateway = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{
		Users:    make(map[string]core.UserProfile),
		Logs:     make(map[string][]core.TransactionRecord),
		Summary:  make(map[string]*core.UpstreamSummary),
		Payments: make(map[string][]core.DeviceAccount),
	}
}

func logKey(user string, day time.Time) string {
	return fmt.Sprintf("%s|%s", user, day.Format("2006-01-02"))
}

// AddLogs registers records returned for user on day.
func (g *Gateway) AddLogs(user string, day time.Time, records ...core.TransactionRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := logKey(user, day)
	g.Logs[key] = append(g.Logs[key], records...)
}

// SetSummary registers the summary returned for user on day.
func (g *Gateway) SetSummary(user string, day time.Time, s *core.UpstreamSummary) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Summary[logKey(user, day)] = s
}

func (g *Gateway) record(call string) {
	g.Calls = append(g.Calls, call)
}

func (g *Gateway) ValidateUser(_ context.Context, creds upstream.Credentials) (*core.UserProfile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("validate:" + creds.Username)
	if g.ValidateErr != nil {
		return nil, g.ValidateErr
	}
	profile, ok := g.Users[creds.Username]
	if !ok {
		return nil, fmt.Errorf("%w: unknown user", core.ErrAuthRequired)
	}
	return &profile, nil
}

func (g *Gateway) FetchLogs(_ context.Context, q upstream.LogQuery) ([]core.TransactionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("logs:" + logKey(q.User, q.Date))
	if g.LogsErr != nil {
		return nil, g.LogsErr
	}
	records := g.Logs[logKey(q.User, q.Date)]
	out := make([]core.TransactionRecord, len(records))
	copy(out, records)
	return out, nil
}

func (g *Gateway) FetchSummary(_ context.Context, q upstream.LogQuery) (*core.UpstreamSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("summary:" + logKey(q.User, q.Date))
	if g.SummaryErr != nil {
		return nil, g.SummaryErr
	}
	if s, ok := g.Summary[logKey(q.User, q.Date)]; ok {
		return s, nil
	}
	return &core.UpstreamSummary{}, nil
}

func (g *Gateway) FetchDevicePayments(_ context.Context, user string) ([]core.DeviceAccount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("payments:" + user)
	if g.PaymentsErr != nil {
		return nil, g.PaymentsErr
	}
	accounts := g.Payments[user]
	out := make([]core.DeviceAccount, len(accounts))
	copy(out, accounts)
	return out, nil
}
