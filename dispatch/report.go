package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindfuel/dispatch/models"
)

// Reporter aggregates a day's delivery log entries and emails the result to
// the operator through the same retry path subscriber deliveries use.
type Reporter struct {
	logRepo   DeliveryLog
	deliverer Deliverer
	operator  string
	log       zerolog.Logger
}

func NewReporter(logRepo DeliveryLog, deliverer Deliverer, operator string, log zerolog.Logger) *Reporter {
	return &Reporter{
		logRepo:   logRepo,
		deliverer: deliverer,
		operator:  operator,
		log:       log.With().Str("component", "reporter").Logger(),
	}
}

// Summarize counts the day's terminal outcomes. A day with no entries is a
// valid, empty report with a success rate of zero, not an error.
func (r *Reporter) Summarize(ctx context.Context, date time.Time) (*models.SummaryReport, error) {
	entries, err := r.logRepo.EntriesForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to read delivery log for %s: %w", date.Format("2006-01-02"), err)
	}

	report := &models.SummaryReport{Date: date}
	for _, e := range entries {
		report.Total++
		switch e.Status {
		case models.DeliveryStatusSent:
			report.Sent++
		case models.DeliveryStatusFailed:
			report.Failed++
		}
	}
	if report.Total > 0 {
		report.SuccessRate = float64(report.Sent) / float64(report.Total)
	}
	return report, nil
}

// Send builds the report for date, emails it to the operator, and records
// the report delivery's own terminal outcome in the delivery log. The log is
// read before the report's entry is written, so the report never counts
// itself.
func (r *Reporter) Send(ctx context.Context, runID string, date time.Time) error {
	report, err := r.Summarize(ctx, date)
	if err != nil {
		return err
	}
	r.log.Info().
		Int("total", report.Total).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("daily summary computed")

	now := time.Now().UTC()
	outcome := r.deliverer.Deliver(ctx, buildSummaryMessage(r.operator, report, now))

	entry := &models.DeliveryLogEntry{
		RunID:     runID,
		Recipient: r.operator,
		Status:    outcome.Status,
		Attempts:  outcome.Attempts,
		SentAt:    time.Now().UTC(),
	}
	if outcome.Err != nil {
		entry.ErrorDetail = outcome.Err.Error()
	}
	if err := r.logRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record summary delivery outcome: %w", err)
	}

	if outcome.Err != nil {
		return fmt.Errorf("summary report send to %s failed after %d attempts: %w", r.operator, outcome.Attempts, outcome.Err)
	}
	r.log.Info().Str("operator", r.operator).Msg("daily summary delivered")
	return nil
}
