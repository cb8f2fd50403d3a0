package models

import "time"

// SummaryReport aggregates one calendar day of delivery log entries. It is
// computed on demand from the log and never persisted separately.
type SummaryReport struct {
	Date        time.Time `json:"date"`
	Total       int       `json:"total"`
	Sent        int       `json:"sent"`
	Failed      int       `json:"failed"`
	SuccessRate float64   `json:"success_rate"` // Sent / Total, defined as 0 when Total is 0.
}

// RunReport carries per-run counters back to the caller that triggered the
// run. Subscriber-level failures are reflected here, not surfaced as errors.
type RunReport struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	Attempted     int       `json:"attempted"`
	Sent          int       `json:"sent"`
	Failed        int       `json:"failed"`
	SkippedTiers  int       `json:"skipped_tiers"`
	StorageErrors int       `json:"storage_errors"`
}
