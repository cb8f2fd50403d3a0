package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindfuel/dispatch/delivery"
	"github.com/mindfuel/dispatch/models"
)

func logEntry(recipient string, status models.DeliveryStatus) models.DeliveryLogEntry {
	return models.DeliveryLogEntry{
		RunID:     "0b7f9a2e-8f0c-4c2d-9a7e-3f1d2c4b5a60",
		Recipient: recipient,
		Status:    status,
		Attempts:  1,
		SentAt:    time.Now().UTC(),
	}
}

func TestSummarizeAllFailedYieldsZeroRate(t *testing.T) {
	t.Parallel()

	logRepo := &memLog{}
	for i := 0; i < 5; i++ {
		logRepo.entries = append(logRepo.entries, logEntry("x@example.com", models.DeliveryStatusFailed))
	}
	r := NewReporter(logRepo, &stubDeliverer{}, "ops@example.com", zerolog.Nop())

	report, err := r.Summarize(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if report.Total != 5 || report.Sent != 0 || report.Failed != 5 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.SuccessRate != 0 {
		t.Fatalf("expected zero success rate, got %v", report.SuccessRate)
	}
}

func TestSummarizeEmptyDay(t *testing.T) {
	t.Parallel()

	r := NewReporter(&memLog{}, &stubDeliverer{}, "ops@example.com", zerolog.Nop())

	report, err := r.Summarize(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("an empty day is not an error: %v", err)
	}
	if report.Total != 0 || report.Sent != 0 || report.Failed != 0 || report.SuccessRate != 0 {
		t.Fatalf("expected all-zero report, got %+v", report)
	}
}

func TestSummarizeMixedOutcomes(t *testing.T) {
	t.Parallel()

	logRepo := &memLog{entries: []models.DeliveryLogEntry{
		logEntry("a@example.com", models.DeliveryStatusSent),
		logEntry("b@example.com", models.DeliveryStatusSent),
		logEntry("c@example.com", models.DeliveryStatusSent),
		logEntry("d@example.com", models.DeliveryStatusFailed),
	}}
	r := NewReporter(logRepo, &stubDeliverer{}, "ops@example.com", zerolog.Nop())

	report, err := r.Summarize(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if report.SuccessRate != 0.75 {
		t.Fatalf("expected success rate 0.75, got %v", report.SuccessRate)
	}
}

func TestSendRecordsOperatorOutcome(t *testing.T) {
	t.Parallel()

	logRepo := &memLog{entries: []models.DeliveryLogEntry{
		logEntry("a@example.com", models.DeliveryStatusSent),
		logEntry("b@example.com", models.DeliveryStatusFailed),
	}}
	del := &stubDeliverer{}
	r := NewReporter(logRepo, del, "ops@example.com", zerolog.Nop())

	if err := r.Send(context.Background(), "run-1", time.Now().UTC()); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if len(del.sent) != 1 {
		t.Fatalf("expected one summary send, got %d", len(del.sent))
	}
	msg := del.sent[0]
	if msg.To != "ops@example.com" {
		t.Fatalf("summary sent to %q", msg.To)
	}
	if !strings.Contains(msg.Body, "Total Emails Attempted : 2") ||
		!strings.Contains(msg.Body, "Successfully Delivered : 1") ||
		!strings.Contains(msg.Body, "Failed Deliveries      : 1") {
		t.Fatalf("summary body missing counts:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Body, "Action Recommended") {
		t.Fatalf("expected the failure advisory in body:\n%s", msg.Body)
	}

	ops := logRepo.forRecipient("ops@example.com")
	if len(ops) != 1 || ops[0].Status != models.DeliveryStatusSent {
		t.Fatalf("expected one sent entry for the operator, got %+v", ops)
	}
	// The summary counted only the two pre-existing entries, never itself.
	if strings.Contains(msg.Body, "Total Emails Attempted : 3") {
		t.Fatal("summary must not count its own delivery")
	}
}

func TestSendReportsDeliveryFailure(t *testing.T) {
	t.Parallel()

	logRepo := &memLog{}
	del := &stubDeliverer{outcomes: map[string]delivery.Outcome{
		"ops@example.com": {Status: models.DeliveryStatusFailed, Attempts: 3, Err: errors.New("relay refused")},
	}}
	r := NewReporter(logRepo, del, "ops@example.com", zerolog.Nop())

	err := r.Send(context.Background(), "run-1", time.Now().UTC())
	if err == nil {
		t.Fatal("expected an error when the summary send fails")
	}

	// The failed outcome is still recorded.
	ops := logRepo.forRecipient("ops@example.com")
	if len(ops) != 1 || ops[0].Status != models.DeliveryStatusFailed || ops[0].Attempts != 3 {
		t.Fatalf("expected a failed operator entry, got %+v", ops)
	}
}

func TestSummaryMessageCleanDay(t *testing.T) {
	t.Parallel()

	report := &models.SummaryReport{
		Date:        time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Total:       4,
		Sent:        4,
		SuccessRate: 1.0,
	}
	msg := buildSummaryMessage("ops@example.com", report, time.Now().UTC())

	if !strings.Contains(msg.Subject, "2026-08-31") {
		t.Fatalf("subject missing date: %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Success Rate           : 100.00%") {
		t.Fatalf("expected 100.00%% success rate in body:\n%s", msg.Body)
	}
	if strings.Contains(msg.Body, "Action Recommended") {
		t.Fatal("clean day must not carry the failure advisory")
	}
}
