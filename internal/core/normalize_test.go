package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeRecordCloudSpelling(t *testing.T) {
	payload := `{
		"Id": 42,
		"IdDispositivo": "DVR-7",
		"NombreDvr": " Sucursal Centro ",
		"NumeroCamara": 3,
		"ClientId": "C-99",
		"CashierId": "K-12",
		"Reason": "patrón atípico",
		"Events": "scan,till_open,pay",
		"Duration": 41.5,
		"StartTime": "2025-11-14T10:30:00",
		"EndTime": "2025-11-14T10:30:41",
		"PaymentMethod": "pago_tarjeta",
		"Type": "Normal",
		"LogDate": "2025-11-14 00:00:00",
		"CreatedAt": "2025-11-14T10:31:02"
	}`
	var m map[string]any
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		t.Fatal(err)
	}

	r := DecodeRecord(m)
	if r.ID != 42 {
		t.Errorf("ID = %d, want 42", r.ID)
	}
	if r.DVRName != "Sucursal Centro" {
		t.Errorf("DVRName = %q, want trimmed name", r.DVRName)
	}
	if r.CameraNumber != 3 || r.ClientID != "C-99" || r.CashierID != "K-12" {
		t.Errorf("identifiers = %d/%q/%q", r.CameraNumber, r.ClientID, r.CashierID)
	}
	if r.DurationSeconds != 41.5 {
		t.Errorf("DurationSeconds = %v", r.DurationSeconds)
	}
	want := time.Date(2025, 11, 14, 10, 30, 0, 0, time.UTC)
	if !r.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", r.StartTime, want)
	}
	if !r.Valid() {
		t.Error("decoded record should satisfy its invariants")
	}
}

func TestDecodeRecordAlternateSpellings(t *testing.T) {
	// The cache tier stores records under a different casing and with
	// Spanish time keys.
	m := map[string]any{
		"id":             float64(7),
		"nombreDvr":      "Bodega",
		"Payment Method": "dinero_mano",
		"type":           "Caja Abierta Sin Pago",
		"Inicio":         "2025-01-02 08:15:00",
		"duration":       "12.25",
	}

	r := DecodeRecord(m)
	if r.ID != 7 || r.DVRName != "Bodega" {
		t.Errorf("fallback keys not honored: %+v", r)
	}
	if r.PaymentMethod != PaymentHandCash {
		t.Errorf("PaymentMethod = %q", r.PaymentMethod)
	}
	if r.Type != TypeOpenTillNoPayment {
		t.Errorf("Type = %q", r.Type)
	}
	if r.StartTime.Hour() != 8 || r.StartTime.Minute() != 15 {
		t.Errorf("StartTime = %v", r.StartTime)
	}
	if r.DurationSeconds != 12.25 {
		t.Errorf("stringified duration not parsed: %v", r.DurationSeconds)
	}
}

func TestDecodeRecordMissingFieldsDefault(t *testing.T) {
	r := DecodeRecord(map[string]any{})
	if r.ID != 0 || r.DVRName != "" || r.PaymentMethod != "" || !r.StartTime.IsZero() {
		t.Errorf("empty payload should decode to zero record, got %+v", r)
	}
}

func TestDecodeRecordsSkipsNonObjects(t *testing.T) {
	raw := []any{
		map[string]any{"Id": float64(1)},
		"garbage",
		nil,
		map[string]any{"Id": float64(2)},
	}
	got := DecodeRecords(raw)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("DecodeRecords = %+v", got)
	}
	if DecodeRecords(nil) != nil {
		t.Error("nil input should yield nil")
	}
}

func TestDecodeDeviceAccountSpellings(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want DeviceAccount
	}{
		{
			name: "spaced keys",
			in: map[string]any{
				"Nombre DVR": " Tienda Norte ",
				"Marca":      "Hikvision",
				"Ip":         "10.0.0.4",
				"Monto Pago": float64(25000),
				"Link Pago":  "https://pay.example/abc",
				"ID Dispositivo": "DVR-4",
			},
			want: DeviceAccount{
				Name: "Tienda Norte", Brand: "Hikvision", IP: "10.0.0.4",
				AmountDue: 25000, PaymentLink: "https://pay.example/abc", DeviceID: "DVR-4",
			},
		},
		{
			name: "compact keys",
			in: map[string]any{
				"NombreDVR": "Caja 2", "MontoPago": float64(0), "IdDispositivo": "DVR-9",
			},
			want: DeviceAccount{Name: "Caja 2", DeviceID: "DVR-9"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeDeviceAccount(tt.in); got != tt.want {
				t.Errorf("DecodeDeviceAccount = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPickTimeLayouts(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"2025-11-14T10:30:00Z", true},
		{"2025-11-14T10:30:00", true},
		{"2025-11-14 10:30:00", true},
		{"2025-11-14", true},
		{"not a date", false},
		{"", false},
	}
	for _, tt := range tests {
		got := pickTime(map[string]any{"t": tt.value}, "t")
		if got.IsZero() == tt.valid {
			t.Errorf("pickTime(%q) zero=%v, want valid=%v", tt.value, got.IsZero(), tt.valid)
		}
	}
}
