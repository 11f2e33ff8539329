package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"korexdash/internal/bucket"
	"korexdash/internal/bucket/memstore"
	"korexdash/internal/core"
	"korexdash/internal/log"
	"korexdash/internal/pipeline"
	"korexdash/internal/upstream"
	"korexdash/internal/upstream/memory"
)

var testDay = time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)

func testQuery() upstream.LogQuery {
	return upstream.LogQuery{Date: testDay, User: "ana@tienda.cl"}
}

func record(id int64, typ, payment string, start time.Time) core.TransactionRecord {
	return core.TransactionRecord{ID: id, Type: typ, PaymentMethod: payment, StartTime: start}
}

func newService(gw *memory.Gateway, store bucket.Store) *DashboardService {
	return NewDashboardService(gw, store, nil, log.New(log.DefaultConfig()))
}

func TestLogin(t *testing.T) {
	gw := memory.New()
	gw.Users["ana@tienda.cl"] = core.UserProfile{Email: "ana@tienda.cl", FullName: "Ana Soto"}
	svc := newService(gw, nil)

	profile, err := svc.Login(context.Background(), upstream.Credentials{Username: "ana@tienda.cl", Password: "x"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if profile.FullName != "Ana Soto" {
		t.Fatalf("profile = %+v", profile)
	}

	_, err = svc.Login(context.Background(), upstream.Credentials{Username: "nadie@x.cl", Password: "x"})
	if !errors.Is(err, core.ErrAuthRequired) {
		t.Fatalf("unknown user: err = %v", err)
	}
}

func TestLogsAreCached(t *testing.T) {
	gw := memory.New()
	gw.AddLogs("ana@tienda.cl", testDay, record(1, core.TypeNormal, core.PaymentCard, testDay))
	svc := newService(gw, nil)

	for i := 0; i < 3; i++ {
		records, err := svc.Logs(context.Background(), testQuery())
		if err != nil {
			t.Fatalf("Logs: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records", len(records))
		}
	}

	fetches := 0
	for _, call := range gw.Calls {
		if strings.HasPrefix(call, "logs:") {
			fetches++
		}
	}
	if fetches != 1 {
		t.Fatalf("gateway fetched %d times, want 1", fetches)
	}
}

func TestLogsErrorNotCached(t *testing.T) {
	gw := memory.New()
	gw.LogsErr = errors.New("boom")
	svc := newService(gw, nil)

	if _, err := svc.Logs(context.Background(), testQuery()); err == nil {
		t.Fatal("expected error")
	}

	gw.LogsErr = nil
	gw.AddLogs("ana@tienda.cl", testDay, record(1, core.TypeNormal, core.PaymentCard, testDay))
	records, err := svc.Logs(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Logs after recovery: %v", err)
	}
	if len(records) != 1 {
		t.Fatal("recovered fetch not served")
	}
}

func TestOverviewHealthy(t *testing.T) {
	gw := memory.New()
	gw.AddLogs("ana@tienda.cl", testDay, record(1, core.TypeNormal, core.PaymentCard, testDay))
	gw.SetSummary("ana@tienda.cl", testDay, &core.UpstreamSummary{TotalTransactions: 1})
	gw.Payments["ana@tienda.cl"] = []core.DeviceAccount{{Name: "Caja 1"}}
	svc := newService(gw, nil)

	ov, err := svc.Overview(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.LogsErr != nil || ov.SummaryErr != nil || ov.PaymentsErr != nil {
		t.Fatalf("slot errors: logs=%v summary=%v payments=%v", ov.LogsErr, ov.SummaryErr, ov.PaymentsErr)
	}
	if len(ov.Logs) != 1 || ov.Summary == nil || len(ov.Payments) != 1 {
		t.Fatalf("slots incomplete: logs=%d summary=%v payments=%d", len(ov.Logs), ov.Summary, len(ov.Payments))
	}
}

func TestOverviewIsolatesSlotFailures(t *testing.T) {
	gw := memory.New()
	gw.AddLogs("ana@tienda.cl", testDay, record(1, core.TypeNormal, core.PaymentCard, testDay))
	gw.Payments["ana@tienda.cl"] = []core.DeviceAccount{{Name: "Caja 1", AmountDue: 15000}}
	gw.SummaryErr = errors.New("summary down")
	svc := newService(gw, nil)

	ov, err := svc.Overview(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.SummaryErr == nil {
		t.Fatal("summary failure not surfaced")
	}
	if ov.LogsErr != nil || len(ov.Logs) != 1 {
		t.Fatalf("logs slot affected: err=%v records=%d", ov.LogsErr, len(ov.Logs))
	}
	if ov.PaymentsErr != nil || len(ov.Payments) != 1 {
		t.Fatalf("payments slot affected: err=%v accounts=%d", ov.PaymentsErr, len(ov.Payments))
	}
}

func TestOverviewCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newService(memory.New(), nil)
	if _, err := svc.Overview(ctx, testQuery()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTransactions(t *testing.T) {
	store := memstore.New()
	store.Add(testDay,
		record(1, core.TypeNormal, core.PaymentCard, testDay.Add(9*time.Hour)),
		record(2, core.TypeOpenTillNoPayment, core.PaymentOpenTill, testDay.Add(10*time.Hour)),
		record(3, core.TypeNormal, core.PaymentCash, testDay.Add(11*time.Hour)),
	)
	svc := newService(memory.New(), store)

	page, err := svc.Transactions(context.Background(), TransactionQuery{
		Day:      testDay,
		Criteria: pipeline.Criteria{Type: core.TypeNormal},
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", page.TotalCount)
	}
	// Most recent first.
	if page.Records[0].ID != 3 || page.Records[1].ID != 1 {
		t.Fatalf("order = [%d %d]", page.Records[0].ID, page.Records[1].ID)
	}
}

func TestKPIsIgnoreFilters(t *testing.T) {
	store := memstore.New()
	store.Add(testDay,
		record(1, core.TypeNormal, core.PaymentCard, testDay),
		record(2, core.TypeUnrecognizedPattern, core.PaymentCash, testDay),
	)
	svc := newService(memory.New(), store)

	kpi, err := svc.KPIs(context.Background(), testDay)
	if err != nil {
		t.Fatalf("KPIs: %v", err)
	}
	if kpi.Total != 2 || kpi.Anomalies != 1 {
		t.Fatalf("kpi = %+v", kpi)
	}
}

func TestTransactionLookup(t *testing.T) {
	store := memstore.New()
	rec := record(7, core.TypeNormal, core.PaymentCard, testDay)
	store.Put("14:11:2025:09:00:transaccion:C-1:K-1", rec)
	svc := newService(memory.New(), store)

	got, err := svc.Transaction(context.Background(), "14:11:2025:09:00:transaccion:C-1:K-1")
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if got == nil || got.ID != 7 {
		t.Fatalf("got %+v", got)
	}

	missing, err := svc.Transaction(context.Background(), "no:such:key")
	if err != nil || missing != nil {
		t.Fatalf("missing key = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestBucketQueriesWithoutStore(t *testing.T) {
	svc := newService(memory.New(), nil)

	if _, err := svc.Transactions(context.Background(), TransactionQuery{Day: testDay}); !errors.Is(err, ErrNoBucketStore) {
		t.Fatalf("Transactions err = %v", err)
	}
	if _, err := svc.KPIs(context.Background(), testDay); !errors.Is(err, ErrNoBucketStore) {
		t.Fatalf("KPIs err = %v", err)
	}
	if err := svc.Health(context.Background()); err != nil {
		t.Fatalf("Health without store = %v", err)
	}
}

func TestHealth(t *testing.T) {
	svc := newService(memory.New(), memstore.New())
	if err := svc.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
