package amqp

import (
	"encoding/json"
	"time"

	"korexdash/internal/core"
)

// AnomalyDigest summarizes the anomalous transactions seen in one day's log
// fetch. Downstream consumers (alerting, reporting) get the counts only and
// fetch full records themselves if they need them.
type AnomalyDigest struct {
	User                string    `json:"user"`
	Date                string    `json:"date"`
	Total               int       `json:"total"`
	Anomalies           int       `json:"anomalies"`
	UnrecognizedPattern int       `json:"unrecognizedPattern"`
	NoPaymentMethod     int       `json:"noPaymentMethod"`
	OpenTillNoPayment   int       `json:"openTillNoPayment"`
	Timestamp           time.Time `json:"timestamp"`
}

// NewAnomalyDigest builds a digest from a day's KPI aggregation.
func NewAnomalyDigest(user string, day time.Time, kpi core.KPISummary) *AnomalyDigest {
	return &AnomalyDigest{
		User:                user,
		Date:                day.Format("2006-01-02"),
		Total:               kpi.Total,
		Anomalies:           kpi.Anomalies,
		UnrecognizedPattern: kpi.UnrecognizedPattern,
		NoPaymentMethod:     kpi.NoPaymentMethod,
		OpenTillNoPayment:   kpi.OpenTillNoPayment,
		Timestamp:           time.Now(),
	}
}

// ToJSON converts the digest to JSON bytes.
func (m *AnomalyDigest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AnomalyDigestFromJSON parses a digest from JSON bytes.
func AnomalyDigestFromJSON(data []byte) (*AnomalyDigest, error) {
	var msg AnomalyDigest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
