package core

import (
	"strings"
	"time"
)

// Transaction type labels as the upstream emits them.
const (
	TypeNormal              = "Normal"
	TypeUnrecognizedPattern = "Patrón No Reconocido"
	TypeNoPaymentMethod     = "Transacción Sin Método de Pago"
	TypeOpenTillNoPayment   = "Caja Abierta Sin Pago"
)

// Payment method vocabulary.
const (
	PaymentCard     = "pago_tarjeta"
	PaymentCash     = "pago_efectivo"
	PaymentOpenTill = "caja_abierta"
	PaymentHandCash = "dinero_mano"
)

// Pseudo-categories accepted by the payment-method filter. They expand to
// vocabulary sets instead of matching a single method.
const (
	FilterCashLike = "pago_efectivo"
	FilterOther    = "otros_metodos"
)

// Category buckets a transaction type classifies into.
type Category string

const (
	CategoryNormal    Category = "normal"
	CategoryAnomalous Category = "anomalous"
	CategoryUnknown   Category = "unknown"
)

type (
	// TransactionRecord is one observed point-of-sale event, already
	// normalized from the upstream payload. Records are read-only: the
	// pipeline derives views and aggregates but never mutates them.
	TransactionRecord struct {
		ID              int64     `json:"id"`
		DeviceID        string    `json:"deviceId"`
		DVRName         string    `json:"dvrName"`
		CameraNumber    int       `json:"cameraNumber"`
		ClientID        string    `json:"clientId"`
		CashierID       string    `json:"cashierId"`
		Reason          string    `json:"reason"`
		Events          string    `json:"events"` // comma-joined event tags
		DurationSeconds float64   `json:"durationSeconds"`
		StartTime       time.Time `json:"startTime"`
		EndTime         time.Time `json:"endTime"`
		PaymentMethod   string    `json:"paymentMethod"`
		Type            string    `json:"type"`
		LogDate         time.Time `json:"logDate"`
		CreatedAt       time.Time `json:"createdAt"`
	}

	// DeviceAccount is the billing/subscription status of one DVR.
	DeviceAccount struct {
		Name        string  `json:"name"`
		Brand       string  `json:"brand"`
		IP          string  `json:"ip"`
		AmountDue   float64 `json:"amountDue"`
		PaymentLink string  `json:"paymentLink"`
		DeviceID    string  `json:"deviceId"`
	}

	// UserProfile is the identity returned by the upstream validator.
	UserProfile struct {
		Email      string `json:"email"`
		FullName   string `json:"fullName"`
		Status     string `json:"status"`
		LastAccess string `json:"lastAccess"`
	}
)

// Classify maps a transaction type label to its category bucket. Labels
// outside the known vocabulary classify as unknown rather than erroring.
func Classify(transactionType string) Category {
	switch transactionType {
	case TypeNormal:
		return CategoryNormal
	case TypeUnrecognizedPattern, TypeNoPaymentMethod, TypeOpenTillNoPayment:
		return CategoryAnomalous
	default:
		return CategoryUnknown
	}
}

// IsCashEquivalent reports whether a payment method belongs to the
// cash-handling vocabulary (everything non-card that involves cash).
func IsCashEquivalent(method string) bool {
	switch method {
	case PaymentCash, PaymentOpenTill, PaymentHandCash:
		return true
	}
	return false
}

// Valid reports whether the record satisfies its structural invariants:
// non-negative duration, and start not after end when both are present.
func (r TransactionRecord) Valid() bool {
	if r.DurationSeconds < 0 {
		return false
	}
	if !r.StartTime.IsZero() && !r.EndTime.IsZero() && r.StartTime.After(r.EndTime) {
		return false
	}
	return true
}

// HasDebt reports whether the device carries an outstanding amount.
func (d DeviceAccount) HasDebt() bool {
	return d.AmountDue > 0
}

// DisplayName returns the full name, falling back to the email local part.
func (u UserProfile) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}
