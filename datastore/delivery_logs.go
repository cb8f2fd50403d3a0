package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mindfuel/dispatch/models"
)

// DeliveryLogRepository is the append-only log of terminal delivery
// outcomes. Concurrent appends from dispatch workers are safe: each write is
// a single-row insert in its own transaction.
type DeliveryLogRepository struct {
	db *sql.DB
}

func NewDeliveryLogRepository(db *sql.DB) *DeliveryLogRepository {
	return &DeliveryLogRepository{db: db}
}

// Record appends one terminal log entry. A persistence failure is returned
// to the caller; it must never be mistaken for a failed send.
func (r *DeliveryLogRepository) Record(ctx context.Context, entry *models.DeliveryLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, err := uuid.Parse(entry.ID); err != nil {
		return fmt.Errorf("invalid log entry ID format: %w", err)
	}
	if _, err := uuid.Parse(entry.RunID); err != nil {
		return fmt.Errorf("invalid run ID format: %w", err)
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}

	query := `
		INSERT INTO delivery_logs (id, run_id, recipient, status, attempts, error_detail, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.RunID, entry.Recipient, entry.Status, entry.Attempts, entry.ErrorDetail, entry.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery log entry for %s: %w", entry.Recipient, err)
	}
	return nil
}

// EntriesForDate returns all terminal entries whose timestamp falls within
// the given calendar date (UTC).
func (r *DeliveryLogRepository) EntriesForDate(ctx context.Context, date time.Time) ([]models.DeliveryLogEntry, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT id, run_id, recipient, status, attempts, error_detail, sent_at
		FROM delivery_logs
		WHERE sent_at >= $1 AND sent_at < $2
	`
	rows, err := r.db.QueryContext(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery logs for %s: %w", dayStart.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var entries []models.DeliveryLogEntry
	for rows.Next() {
		var e models.DeliveryLogEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Recipient, &e.Status, &e.Attempts, &e.ErrorDetail, &e.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery log rows: %w", err)
	}
	return entries, nil
}
