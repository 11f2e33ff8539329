package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "buckets.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)

	payloads := []string{
		`{"Id": 1, "Type": "Normal", "StartTime": "2025-11-14 09:00:00"}`,
		`{"Id": 2, "type": "Caja Abierta Sin Pago", "Inicio": "2025-11-14 10:00:00"}`,
	}
	for _, p := range payloads {
		if err := s.Append(ctx, day, []byte(p)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	records, err := s.Records(ctx, day)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Arrival order preserved, both spellings decoded.
	if records[0].ID != 1 || records[1].ID != 2 {
		t.Errorf("order = [%d %d], want [1 2]", records[0].ID, records[1].ID)
	}
	if records[1].Type != "Caja Abierta Sin Pago" {
		t.Errorf("alternate spelling not decoded: %+v", records[1])
	}
}

func TestRecordsMissingDayIsEmpty(t *testing.T) {
	s := newTestStore(t)
	records, err := s.Records(context.Background(), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("missing day returned %d records", len(records))
	}
}

func TestAppendRejectsInvalidJSON(t *testing.T) {
	s := newTestStore(t)
	if err := s.Append(context.Background(), time.Now(), []byte("{broken")); err == nil {
		t.Fatal("Append should reject invalid JSON")
	}
}

func TestLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := "14:11:2025:10:30:transaccion:C-1:K-2"

	if rec, err := s.Lookup(ctx, key); err != nil || rec != nil {
		t.Fatalf("Lookup of absent key = (%v, %v), want (nil, nil)", rec, err)
	}

	if err := s.PutKeyed(ctx, key, []byte(`{"Id": 9, "ClientId": "C-1"}`)); err != nil {
		t.Fatalf("PutKeyed: %v", err)
	}
	rec, err := s.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec == nil || rec.ID != 9 || rec.ClientID != "C-1" {
		t.Fatalf("Lookup = %+v", rec)
	}

	// Upsert replaces.
	if err := s.PutKeyed(ctx, key, []byte(`{"Id": 10}`)); err != nil {
		t.Fatal(err)
	}
	rec, _ = s.Lookup(ctx, key)
	if rec == nil || rec.ID != 10 {
		t.Fatalf("Lookup after upsert = %+v", rec)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
