package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindfuel/dispatch/models"
)

// SubscriberRepository is the directory of subscriber records. It is the only
// component that writes the subscribers table; the dispatcher just reads.
type SubscriberRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSubscriberRepository(db *sql.DB, log zerolog.Logger) *SubscriberRepository {
	return &SubscriberRepository{db: db, log: log.With().Str("component", "subscriber_repo").Logger()}
}

// Upsert provisions a subscriber keyed on email address. Calling it again
// with the same email is a no-op for creation: the record's name, status and
// frequency are updated in place and the event is logged, never treated as
// an error.
func (r *SubscriberRepository) Upsert(ctx context.Context, sub *models.Subscriber) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("rejecting malformed subscriber record: %w", err)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	// xmax = 0 distinguishes a fresh insert from a conflict-update.
	query := `
		INSERT INTO subscribers (email, name, status, frequency, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, status = EXCLUDED.status, frequency = EXCLUDED.frequency
		RETURNING (xmax = 0)
	`
	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		sub.Email, sub.Name, sub.Status, sub.Frequency, sub.CreatedAt,
	).Scan(&inserted)
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber %s: %w", sub.Email, err)
	}

	if inserted {
		r.log.Info().Str("email", sub.Email).Str("frequency", string(sub.Frequency)).Msg("subscriber provisioned")
	} else {
		r.log.Info().Str("email", sub.Email).Msg("subscriber already exists, record refreshed")
	}
	return nil
}

// Eligible returns the active subscribers on the given frequency tier that
// are due for a delivery: either never delivered to, or last delivered at
// least one full interval ago. Results are ordered by email address so a
// run's selection is deterministic.
func (r *SubscriberRepository) Eligible(ctx context.Context, freq models.Frequency) ([]models.Subscriber, error) {
	if _, ok := models.IsValidFrequency(string(freq)); !ok {
		return nil, fmt.Errorf("invalid frequency %q", freq)
	}
	cutoff := time.Now().UTC().Add(-freq.Interval())

	query := `
		SELECT email, name, status, frequency, created_at, last_delivery_at
		FROM subscribers
		WHERE status = $1
		  AND frequency = $2
		  AND (last_delivery_at IS NULL OR last_delivery_at <= $3)
		ORDER BY email
	`
	rows, err := r.db.QueryContext(ctx, query, models.SubscriptionActive, freq, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible %s subscribers: %w", freq, err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		var lastDelivery sql.NullTime
		if err := rows.Scan(&sub.Email, &sub.Name, &sub.Status, &sub.Frequency, &sub.CreatedAt, &lastDelivery); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		if lastDelivery.Valid {
			t := lastDelivery.Time
			sub.LastDeliveryAt = &t
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}
	return subs, nil
}

// MarkDelivered stamps the subscriber's last delivery time after a
// successful send.
func (r *SubscriberRepository) MarkDelivered(ctx context.Context, email string, at time.Time) error {
	query := `UPDATE subscribers SET last_delivery_at = $1 WHERE email = $2`
	if _, err := r.db.ExecContext(ctx, query, at.UTC(), email); err != nil {
		return fmt.Errorf("failed to mark delivery for %s: %w", email, err)
	}
	return nil
}

// All returns every subscriber record, newest first.
func (r *SubscriberRepository) All(ctx context.Context) ([]models.Subscriber, error) {
	query := `
		SELECT email, name, status, frequency, created_at, last_delivery_at
		FROM subscribers
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		var lastDelivery sql.NullTime
		if err := rows.Scan(&sub.Email, &sub.Name, &sub.Status, &sub.Frequency, &sub.CreatedAt, &lastDelivery); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		if lastDelivery.Valid {
			t := lastDelivery.Time
			sub.LastDeliveryAt = &t
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}
	return subs, nil
}
