// Package upstream defines the outbound ports toward the cloud API. The
// dashboard talks to these interfaces only; the korex subpackage implements
// them against the real HTTP API and the memory subpackage provides fakes.
package upstream

import (
	"context"
	"time"

	"korexdash/internal/core"
)

// Credentials carry a login attempt to the upstream validator.
type Credentials struct {
	Username string
	Password string
}

// LogQuery selects the transaction logs for one user and day. DeviceID is
// optional and narrows the result to a single DVR.
type LogQuery struct {
	Date     time.Time
	User     string
	DeviceID string
}

// UserValidator proxies credential checks to the cloud identity endpoint.
type UserValidator interface {
	ValidateUser(ctx context.Context, creds Credentials) (*core.UserProfile, error)
}

// LogFetcher retrieves the raw transaction log list for a day.
type LogFetcher interface {
	FetchLogs(ctx context.Context, q LogQuery) ([]core.TransactionRecord, error)
}

// SummaryFetcher retrieves the precomputed KPI summary for a day.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, q LogQuery) (*core.UpstreamSummary, error)
}

// DevicePaymentFetcher retrieves the DVR billing list for a user.
type DevicePaymentFetcher interface {
	FetchDevicePayments(ctx context.Context, user string) ([]core.DeviceAccount, error)
}

// Gateway bundles the full outbound surface for consumers that need all of it.
type Gateway interface {
	UserValidator
	LogFetcher
	SummaryFetcher
	DevicePaymentFetcher
}
