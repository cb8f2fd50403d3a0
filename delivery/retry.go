package delivery

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindfuel/dispatch/metrics"
	"github.com/mindfuel/dispatch/models"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Outcome is the terminal result of one recipient's delivery sequence.
// Attempts is the attempt at which the outcome was reached.
type Outcome struct {
	Status   models.DeliveryStatus
	Attempts int
	Err      error // last error; nil iff Status is "sent"
}

// Deliverer wraps a Transport with bounded retry and exponential backoff.
// It has no persistence side effects: recording the terminal outcome is the
// caller's job, which keeps retry logic and the log store independently
// testable.
type Deliverer struct {
	transport Transport
	policy    Policy
	log       zerolog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewDeliverer(transport Transport, policy Policy, log zerolog.Logger) *Deliverer {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	return &Deliverer{
		transport: transport,
		policy:    policy,
		log:       log.With().Str("component", "deliverer").Str("transport", transport.Name()).Logger(),
		sleep:     sleepCtx,
	}
}

// Deliver attempts the send up to MaxAttempts times, waiting
// BaseDelay * 2^(attempt-1) between attempts. A permanent failure (bad
// credentials, rejected recipient) short-circuits immediately without
// waiting out the backoff.
func (d *Deliverer) Deliver(ctx context.Context, msg Message) Outcome {
	var lastErr error

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		err := d.transport.Send(ctx, msg)
		if err == nil {
			metrics.DeliveriesTotal.WithLabelValues(d.transport.Name(), string(models.DeliveryStatusSent)).Inc()
			return Outcome{Status: models.DeliveryStatusSent, Attempts: attempt}
		}
		lastErr = err

		if IsPermanent(err) {
			d.log.Error().Str("to", msg.To).Int("attempt", attempt).Err(err).Msg("permanent delivery failure, not retrying")
			metrics.DeliveriesTotal.WithLabelValues(d.transport.Name(), string(models.DeliveryStatusFailed)).Inc()
			return Outcome{Status: models.DeliveryStatusFailed, Attempts: attempt, Err: err}
		}

		if attempt == d.policy.MaxAttempts {
			break
		}

		delay := d.policy.BaseDelay << (attempt - 1)
		d.log.Warn().Str("to", msg.To).Int("attempt", attempt).Dur("retry_in", delay).Err(err).Msg("delivery attempt failed, retrying")
		metrics.DeliveryRetriesTotal.WithLabelValues(d.transport.Name()).Inc()

		if err := d.sleep(ctx, delay); err != nil {
			metrics.DeliveriesTotal.WithLabelValues(d.transport.Name(), string(models.DeliveryStatusFailed)).Inc()
			return Outcome{Status: models.DeliveryStatusFailed, Attempts: attempt, Err: err}
		}
	}

	metrics.DeliveriesTotal.WithLabelValues(d.transport.Name(), string(models.DeliveryStatusFailed)).Inc()
	return Outcome{Status: models.DeliveryStatusFailed, Attempts: d.policy.MaxAttempts, Err: lastErr}
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	tmr := time.NewTimer(d)
	defer tmr.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}
