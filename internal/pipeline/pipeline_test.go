package pipeline

import (
	"testing"
	"time"

	"korexdash/internal/core"
)

func rec(id int64, typ, method string, start time.Time, duration float64) core.TransactionRecord {
	return core.TransactionRecord{
		ID:              id,
		Type:            typ,
		PaymentMethod:   method,
		StartTime:       start,
		DurationSeconds: duration,
		DVRName:         "DVR Local",
		ClientID:        "C-1",
		CashierID:       "K-1",
	}
}

func TestFilterByType(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, core.PaymentCard, base, 10),
		rec(2, core.TypeUnrecognizedPattern, core.PaymentCash, base, 20),
		rec(3, core.TypeNormal, core.PaymentCash, base, 30),
	}

	got := Filter(records, Criteria{Type: core.TypeNormal})
	if len(got) != 2 {
		t.Fatalf("Filter by type returned %d records, want 2", len(got))
	}
	for _, r := range got {
		if r.Type != core.TypeNormal {
			t.Errorf("record %d has type %q", r.ID, r.Type)
		}
	}
}

func TestFilterCashPseudoCategory(t *testing.T) {
	base := time.Now()
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, core.PaymentCard, base, 1),
		rec(2, core.TypeNormal, core.PaymentCash, base, 1),
		rec(3, core.TypeNormal, core.PaymentOpenTill, base, 1),
		rec(4, core.TypeNormal, core.PaymentHandCash, base, 1),
	}

	got := Filter(records, Criteria{PaymentMethod: core.FilterCashLike})
	if len(got) != 3 {
		t.Fatalf("cash pseudo-category matched %d records, want 3", len(got))
	}
	for _, r := range got {
		if r.PaymentMethod == core.PaymentCard {
			t.Errorf("card record %d leaked into cash filter", r.ID)
		}
	}
}

func TestFilterOtherPseudoCategory(t *testing.T) {
	base := time.Now()
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, core.PaymentCard, base, 1),
		rec(2, core.TypeNormal, core.PaymentCash, base, 1),
		rec(3, core.TypeNormal, "transferencia", base, 1),
		rec(4, core.TypeNormal, "", base, 1),
	}

	got := Filter(records, Criteria{PaymentMethod: core.FilterOther})
	if len(got) != 2 {
		t.Fatalf("other pseudo-category matched %d records, want 2", len(got))
	}
}

func TestFilterSearchAllFields(t *testing.T) {
	base := time.Now()
	records := []core.TransactionRecord{
		rec(101, core.TypeNormal, core.PaymentCard, base, 1),
		rec(202, core.TypeNormal, core.PaymentCard, base, 1),
	}
	records[1].Reason = "Cliente pagó en CAJA principal"

	if got := Filter(records, Criteria{SearchTerm: "101"}); len(got) != 1 || got[0].ID != 101 {
		t.Fatalf("search by id returned %v", got)
	}
	// Case-insensitive substring across any field.
	if got := Filter(records, Criteria{SearchTerm: "caja"}); len(got) != 1 || got[0].ID != 202 {
		t.Fatalf("search by reason returned %v", got)
	}
	if got := Filter(records, Criteria{SearchTerm: "no-match"}); len(got) != 0 {
		t.Fatalf("impossible search returned %d records", len(got))
	}
}

func TestFilterSearchNumericAndDateFields(t *testing.T) {
	base := time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC)
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, core.PaymentCard, base, 41.5),
		rec(2, core.TypeNormal, core.PaymentCard, base, 12),
	}
	records[1].LogDate = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	records[1].CreatedAt = time.Date(2024, 3, 2, 18, 30, 0, 0, time.UTC)

	if got := Filter(records, Criteria{SearchTerm: "41.5"}); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("search by duration returned %v", got)
	}
	if got := Filter(records, Criteria{SearchTerm: "2024-03-02"}); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("search by log date returned %v", got)
	}
	if got := Filter(records, Criteria{SearchTerm: "18:30"}); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("search by creation time returned %v", got)
	}
}

func TestFilterPredicatesAreANDed(t *testing.T) {
	base := time.Now()
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, core.PaymentCard, base, 1),
		rec(2, core.TypeNormal, core.PaymentCash, base, 1),
		rec(3, core.TypeUnrecognizedPattern, core.PaymentCash, base, 1),
	}

	got := Filter(records, Criteria{Type: core.TypeNormal, PaymentMethod: core.FilterCashLike})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("combined filter returned %v", got)
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	base := time.Now()
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, core.PaymentCard, base, 1),
		rec(2, core.TypeUnrecognizedPattern, core.PaymentCash, base, 1),
		rec(3, core.TypeNormal, core.PaymentHandCash, base, 1),
	}
	c := Criteria{Type: core.TypeNormal, SearchTerm: "dvr"}

	once := Filter(records, c)
	twice := Filter(once, c)
	if len(once) != len(twice) {
		t.Fatalf("second filter pass changed size: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("record %d differs after second pass", i)
		}
	}
}

func TestFilterEmptyInput(t *testing.T) {
	if got := Filter(nil, Criteria{Type: core.TypeNormal}); len(got) != 0 {
		t.Fatalf("nil input returned %d records", len(got))
	}
}

func TestSortMostRecentFirst(t *testing.T) {
	t10 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t09 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, "", t09, 1),
		rec(2, core.TypeNormal, "", t10, 1),
	}

	got := Sort(records)
	if got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("Sort order = [%d %d], want [2 1]", got[0].ID, got[1].ID)
	}
	// Input untouched.
	if records[0].ID != 1 {
		t.Error("Sort mutated its input")
	}
}

func TestSortStableOnEqualStartTimes(t *testing.T) {
	same := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, "", same, 1),
		rec(2, core.TypeNormal, "", same, 1),
		rec(3, core.TypeNormal, "", same, 1),
	}

	got := Sort(records)
	for i, want := range []int64{1, 2, 3} {
		if got[i].ID != want {
			t.Fatalf("same-instant records reordered: got %d at %d, want %d", got[i].ID, i, want)
		}
	}
}

func TestPaginate(t *testing.T) {
	base := time.Now()
	records := make([]core.TransactionRecord, 25)
	for i := range records {
		records[i] = rec(int64(i+1), core.TypeNormal, "", base, 1)
	}

	tests := []struct {
		name                   string
		page, size             int
		wantLen, wantPages     int
		wantNext, wantPrev     bool
	}{
		{"first page", 1, 10, 10, 3, true, false},
		{"middle page", 2, 10, 10, 3, true, true},
		{"last partial page", 3, 10, 5, 3, false, true},
		{"out of range", 9, 10, 0, 3, false, true},
		{"single big page", 1, 100, 25, 1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(records, tt.page, tt.size)
			if len(p.Records) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(p.Records), tt.wantLen)
			}
			if len(p.Records) > tt.size {
				t.Errorf("page exceeds size: %d > %d", len(p.Records), tt.size)
			}
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.TotalCount != 25 {
				t.Errorf("TotalCount = %d, want 25", p.TotalCount)
			}
			if p.HasNext != tt.wantNext || p.HasPrev != tt.wantPrev {
				t.Errorf("HasNext/HasPrev = %v/%v, want %v/%v", p.HasNext, p.HasPrev, tt.wantNext, tt.wantPrev)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate(nil, 1, 10)
	if p.TotalPages != 0 || p.TotalCount != 0 || len(p.Records) != 0 {
		t.Fatalf("empty paginate = %+v", p)
	}
	if p.HasNext || p.HasPrev {
		t.Fatal("empty paginate should have no neighbors")
	}
}

func TestAggregateExample(t *testing.T) {
	// The worked example: 5 records, 3 normal, 2 anomalous.
	base := time.Now()
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, core.PaymentCard, base, 10),
		rec(2, core.TypeNormal, core.PaymentCash, base, 20),
		rec(3, core.TypeUnrecognizedPattern, core.PaymentHandCash, base, 30),
		rec(4, core.TypeOpenTillNoPayment, "transferencia", base, 40),
		rec(5, core.TypeNormal, core.PaymentOpenTill, base, 50),
	}

	s := Aggregate(records)
	if s.Total != 5 || s.Normal != 3 || s.Anomalies != 2 {
		t.Fatalf("Aggregate = total %d normal %d anomalies %d, want 5/3/2", s.Total, s.Normal, s.Anomalies)
	}
	if s.CardPayments != 1 || s.CashPayments != 3 || s.OtherPayments != 1 {
		t.Fatalf("payments = card %d cash %d other %d, want 1/3/1", s.CardPayments, s.CashPayments, s.OtherPayments)
	}
	if s.AvgDurationSeconds != 30 {
		t.Fatalf("AvgDurationSeconds = %v, want 30", s.AvgDurationSeconds)
	}
	if s.Normal+s.Anomalies > s.Total {
		t.Fatal("classified counts exceed total")
	}
}

func TestAggregateUnknownTypesStayOutside(t *testing.T) {
	base := time.Now()
	records := []core.TransactionRecord{
		rec(1, core.TypeNormal, "", base, 1),
		rec(2, "tipo inventado", "", base, 1),
	}
	s := Aggregate(records)
	if s.Normal+s.Anomalies != 1 {
		t.Fatalf("normal+anomalies = %d, want 1 (unknown type excluded)", s.Normal+s.Anomalies)
	}
	if s.Normal+s.Anomalies > s.Total {
		t.Fatal("classified counts exceed total")
	}
}

func TestAggregateEmptyNeverDividesByZero(t *testing.T) {
	s := Aggregate(nil)
	if s.Total != 0 || s.AvgDurationSeconds != 0 {
		t.Fatalf("empty aggregate = %+v, want all zero", s)
	}
	s = Aggregate([]core.TransactionRecord{})
	if s.AvgDurationSeconds != 0 {
		t.Fatalf("AvgDurationSeconds = %v for empty slice, want 0", s.AvgDurationSeconds)
	}
}
