package metrics

// Collector captures counters, gauges and histograms.
type Collector interface {
	IncCounter(name string, labels map[string]string, delta float64)
	SetGauge(name string, labels map[string]string, value float64)
	ObserveHistogram(name string, labels map[string]string, value float64)
}

// Names used by the server.
const (
	TransactionsTotal    = "transactions_total"
	AppendDuration       = "wal_append_duration_seconds"
	AppendErrorsTotal    = "wal_append_errors_total"
	RecoveryAppliedTotal = "recovery_applied_total"
	RecoverySkippedTotal = "recovery_skipped_total"
	NextTransactionID    = "next_transaction_id"
	StateKeys            = "state_keys"
)

// Nop discards everything.
type Nop struct{}

func (Nop) IncCounter(string, map[string]string, float64)       {}
func (Nop) SetGauge(string, map[string]string, float64)         {}
func (Nop) ObserveHistogram(string, map[string]string, float64) {}
