package amqp

import (
	"context"
	"testing"
	"time"

	"korexdash/internal/core"
)

func TestNilClientIsNoOp(t *testing.T) {
	var c *Client
	digest := NewAnomalyDigest("ana@tienda.cl", time.Now(), core.KPISummary{Anomalies: 2})

	if err := c.PublishAnomalyDigest(context.Background(), digest); err != nil {
		t.Fatalf("nil publish: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestAnomalyDigestRoundTrip(t *testing.T) {
	day := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)
	digest := NewAnomalyDigest("ana@tienda.cl", day, core.KPISummary{
		Total:               10,
		Anomalies:           3,
		UnrecognizedPattern: 1,
		NoPaymentMethod:     1,
		OpenTillNoPayment:   1,
	})

	body, err := digest.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := AnomalyDigestFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.User != "ana@tienda.cl" || got.Date != "2025-11-14" {
		t.Fatalf("got %+v", got)
	}
	if got.Anomalies != 3 || got.Total != 10 {
		t.Fatalf("counts lost: %+v", got)
	}
}

func TestAnomalyDigestFromJSONRejectsGarbage(t *testing.T) {
	if _, err := AnomalyDigestFromJSON([]byte("{nope")); err == nil {
		t.Fatal("expected parse error")
	}
}
