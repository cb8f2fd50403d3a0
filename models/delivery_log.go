package models

import "time"

// DeliveryStatus defines the terminal outcome of a delivery attempt sequence.
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// DeliveryLogEntry records the terminal outcome of one recipient's delivery
// within a run. Intermediate retries are not stored as separate rows; the
// Attempts field carries the attempt at which the outcome was reached.
// Entries are append-only.
type DeliveryLogEntry struct {
	ID          string         `json:"id"`
	RunID       string         `json:"run_id"`
	Recipient   string         `json:"recipient"`
	Status      DeliveryStatus `json:"status"`
	Attempts    int            `json:"attempts"`
	ErrorDetail string         `json:"error_detail,omitempty"` // Present iff Status is "failed".
	SentAt      time.Time      `json:"sent_at"`
}
