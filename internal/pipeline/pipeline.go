// Package pipeline implements the transaction classification, aggregation,
// and filter/pagination pipeline. It holds no state: every function is a
// pure per-call computation over an input slice, and bad or empty input
// degrades to empty output instead of erroring.
package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"korexdash/internal/core"
)

// Criteria are the optional filter predicates. Empty fields match everything;
// non-empty fields are ANDed together.
type Criteria struct {
	Type          string
	PaymentMethod string
	SearchTerm    string
}

// Page is one paginated slice plus its bookkeeping.
type Page struct {
	Records    []core.TransactionRecord `json:"records"`
	TotalCount int                      `json:"totalCount"`
	TotalPages int                      `json:"totalPages"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
	HasNext    bool                     `json:"hasNext"`
	HasPrev    bool                     `json:"hasPrev"`
}

// Filter returns the records matching all present criteria. The input slice
// is never mutated.
func Filter(records []core.TransactionRecord, c Criteria) []core.TransactionRecord {
	if len(records) == 0 {
		return nil
	}
	term := strings.ToLower(strings.TrimSpace(c.SearchTerm))
	out := make([]core.TransactionRecord, 0, len(records))
	for _, r := range records {
		if c.Type != "" && r.Type != c.Type {
			continue
		}
		if c.PaymentMethod != "" && !matchesPayment(r.PaymentMethod, c.PaymentMethod) {
			continue
		}
		if term != "" && !matchesSearch(r, term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesPayment(method, wanted string) bool {
	switch wanted {
	case core.FilterCashLike:
		return core.IsCashEquivalent(method)
	case core.FilterOther:
		return method != core.PaymentCard && !core.IsCashEquivalent(method)
	default:
		return method == wanted
	}
}

// matchesSearch checks the term against every field of the record,
// stringified, case-insensitively.
func matchesSearch(r core.TransactionRecord, term string) bool {
	fields := []string{
		fmt.Sprintf("%d", r.ID),
		r.DeviceID,
		r.DVRName,
		fmt.Sprintf("%d", r.CameraNumber),
		r.ClientID,
		r.CashierID,
		r.Reason,
		r.Events,
		r.PaymentMethod,
		r.Type,
		fmt.Sprintf("%v", r.DurationSeconds),
	}
	if !r.StartTime.IsZero() {
		fields = append(fields, r.StartTime.Format("2006-01-02 15:04:05"))
	}
	if !r.EndTime.IsZero() {
		fields = append(fields, r.EndTime.Format("2006-01-02 15:04:05"))
	}
	if !r.LogDate.IsZero() {
		fields = append(fields, r.LogDate.Format("2006-01-02"))
	}
	if !r.CreatedAt.IsZero() {
		fields = append(fields, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Sort returns a new slice ordered by start time descending (most recent
// first). The sort is stable: records with equal start times keep their
// arrival order, since the source provides no secondary key.
func Sort(records []core.TransactionRecord) []core.TransactionRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]core.TransactionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// Paginate slices out one 1-indexed page. Out-of-range pages yield an empty
// slice without error; page and pageSize below 1 are clamped to safe values.
func Paginate(records []core.TransactionRecord, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	total := len(records)
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	var slice []core.TransactionRecord
	if start < total {
		if end > total {
			end = total
		}
		slice = make([]core.TransactionRecord, end-start)
		copy(slice, records[start:end])
	}

	return Page{
		Records:    slice,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}
}

// Aggregate computes the KPI summary over the full, unfiltered daily set.
// Callers must not pass a filtered view: the KPI cards reflect the whole day
// regardless of any active filter. Empty input yields a zeroed summary.
func Aggregate(records []core.TransactionRecord) core.KPISummary {
	var s core.KPISummary
	if len(records) == 0 {
		return s
	}

	var totalDuration float64
	for _, r := range records {
		s.Total++
		switch r.Type {
		case core.TypeNormal:
			s.Normal++
		case core.TypeUnrecognizedPattern:
			s.UnrecognizedPattern++
		case core.TypeNoPaymentMethod:
			s.NoPaymentMethod++
		case core.TypeOpenTillNoPayment:
			s.OpenTillNoPayment++
		}
		switch {
		case r.PaymentMethod == core.PaymentCard:
			s.CardPayments++
		case core.IsCashEquivalent(r.PaymentMethod):
			s.CashPayments++
		}
		totalDuration += r.DurationSeconds
	}
	s.Anomalies = s.UnrecognizedPattern + s.NoPaymentMethod + s.OpenTillNoPayment
	s.OtherPayments = s.Total - s.CardPayments - s.CashPayments
	s.AvgDurationSeconds = totalDuration / float64(s.Total)
	return s
}
