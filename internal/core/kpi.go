package core

// KPISummary is the locally recomputed aggregate over one daily bucket.
// It is a pure function of the bucket's contents at read time and carries
// no identity of its own.
type KPISummary struct {
	Total               int     `json:"total"`
	Normal              int     `json:"normal"`
	Anomalies           int     `json:"anomalies"`
	UnrecognizedPattern int     `json:"unrecognizedPattern"`
	NoPaymentMethod     int     `json:"noPaymentMethod"`
	OpenTillNoPayment   int     `json:"openTillNoPayment"`
	CardPayments        int     `json:"cardPayments"`
	CashPayments        int     `json:"cashPayments"`
	OtherPayments       int     `json:"otherPayments"`
	AvgDurationSeconds  float64 `json:"avgDurationSeconds"`
}

// UpstreamSummary is the provider's own pre-aggregated daily counts, kept
// distinct from KPISummary: the upstream numbers are the official ones and
// are never recomputed locally.
type UpstreamSummary struct {
	TotalTransactions int     `json:"TotalTransactions"`
	TotalNormal       int     `json:"TotalNormal"`
	TotalAnomalies    int     `json:"TotalAnomalies"`
	TotalPagos        int     `json:"TotalPagos"`
	TotalTarjeta      int     `json:"TotalTarjeta"`
	TotalEfectivo     int     `json:"TotalEfectivo"`
	AvgDuration       float64 `json:"AvgDuration"`
}

// Percentage returns part over total as a percentage, 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
