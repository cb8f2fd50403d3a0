package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mindfuel/dispatch/delivery"
	"github.com/mindfuel/dispatch/metrics"
	"github.com/mindfuel/dispatch/models"
)

// ErrContentFetchFailed aborts a run before any recipient is contacted: if
// no content exists, no emails are sent and no log entries are written.
var ErrContentFetchFailed = errors.New("content fetch failed, run aborted")

// QuoteSource fetches a batch of quotes for a run.
type QuoteSource interface {
	Fetch(ctx context.Context, limit int) ([]models.Quote, error)
}

// Directory yields the eligible recipients for a frequency tier.
type Directory interface {
	Eligible(ctx context.Context, freq models.Frequency) ([]models.Subscriber, error)
	MarkDelivered(ctx context.Context, email string, at time.Time) error
}

// DeliveryLog persists terminal delivery outcomes.
type DeliveryLog interface {
	Record(ctx context.Context, entry *models.DeliveryLogEntry) error
	EntriesForDate(ctx context.Context, date time.Time) ([]models.DeliveryLogEntry, error)
}

// Deliverer performs one recipient's delivery sequence with retry.
type Deliverer interface {
	Deliver(ctx context.Context, msg delivery.Message) delivery.Outcome
}

// Config bounds a run's resource usage.
type Config struct {
	FetchLimit   int           // quotes requested per run
	FetchTimeout time.Duration // explicit bound on the content fetch
	Workers      int           // concurrent deliveries per tier
	RatePerSec   int           // outbound send rate limit; 0 disables
}

func (c Config) withDefaults() Config {
	if c.FetchLimit <= 0 {
		c.FetchLimit = 20
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// Dispatcher orchestrates one run: fetch content, select a quote, deliver to
// each eligible subscriber per tier, record outcomes, then hand off to the
// summary reporter. It is the sole writer of delivery log entries.
type Dispatcher struct {
	cfg       Config
	source    QuoteSource
	directory Directory
	logRepo   DeliveryLog
	deliverer Deliverer
	reporter  *Reporter
	limiter   *rate.Limiter
	log       zerolog.Logger

	// Runs never overlap; a second trigger while one is in flight is refused.
	runMu sync.Mutex
}

func NewDispatcher(
	cfg Config,
	source QuoteSource,
	directory Directory,
	logRepo DeliveryLog,
	deliverer Deliverer,
	reporter *Reporter,
	log zerolog.Logger,
) *Dispatcher {
	cfg = cfg.withDefaults()
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &Dispatcher{
		cfg:       cfg,
		source:    source,
		directory: directory,
		logRepo:   logRepo,
		deliverer: deliverer,
		reporter:  reporter,
		limiter:   limiter,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
}

// ErrRunInProgress is returned when a trigger arrives while a run is active.
var ErrRunInProgress = errors.New("a dispatch run is already in progress")

// Run executes one complete dispatch run. Subscriber-level failures are
// isolated and recorded; only a content-fetch failure aborts the run.
func (d *Dispatcher) Run(ctx context.Context) (*models.RunReport, error) {
	if !d.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer d.runMu.Unlock()

	start := time.Now().UTC()
	report := &models.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: start,
	}
	runLog := d.log.With().Str("run_id", report.RunID).Logger()
	runLog.Info().Msg("dispatch run started")

	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
	batch, err := d.source.Fetch(fetchCtx, d.cfg.FetchLimit)
	cancel()
	if err != nil {
		metrics.ContentFetchFailuresTotal.Inc()
		runLog.Error().Err(err).Msg("content fetch failed, aborting run")
		return nil, fmt.Errorf("%w: %v", ErrContentFetchFailed, err)
	}

	quote := selectQuote(batch, start)
	runLog.Info().Int("batch", len(batch)).Str("author", quote.Author).Msg("quote selected for run")

	for _, tier := range models.Frequencies {
		d.runTier(ctx, runLog, report, tier, quote)
	}

	if d.reporter != nil {
		if err := d.reporter.Send(ctx, report.RunID, start); err != nil {
			// Reporter failure never fails the run; operators see it in the log.
			runLog.Error().Err(err).Msg("summary report delivery failed")
		}
	}

	report.CompletedAt = time.Now().UTC()
	metrics.DispatchRunDuration.Observe(report.CompletedAt.Sub(start).Seconds())
	runLog.Info().
		Int("attempted", report.Attempted).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("storage_errors", report.StorageErrors).
		Dur("duration", report.CompletedAt.Sub(start)).
		Msg("dispatch run completed")
	return report, nil
}

// runTier delivers the quote to every eligible subscriber on one frequency
// tier. A query failure skips the tier without aborting the run; deliveries
// within the tier are independent of one another.
func (d *Dispatcher) runTier(ctx context.Context, runLog zerolog.Logger, report *models.RunReport, tier models.Frequency, quote models.Quote) {
	subs, err := d.directory.Eligible(ctx, tier)
	if err != nil {
		runLog.Error().Str("tier", string(tier)).Err(err).Msg("subscriber query failed, skipping tier")
		report.SkippedTiers++
		return
	}
	if len(subs) == 0 {
		runLog.Warn().Str("tier", string(tier)).Msg("no eligible subscribers for tier")
		return
	}
	runLog.Info().Str("tier", string(tier)).Int("count", len(subs)).Msg("delivering to tier")

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, d.cfg.Workers)
	)
	for i := range subs {
		sub := subs[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := d.deliverOne(ctx, runLog, report.RunID, sub, quote)

			mu.Lock()
			report.Attempted++
			switch outcome.sendStatus {
			case models.DeliveryStatusSent:
				report.Sent++
			case models.DeliveryStatusFailed:
				report.Failed++
			}
			if outcome.storageErr {
				report.StorageErrors++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
}

// tierOutcome separates send failure from log-write failure: they are
// distinct, reportable events and must never be conflated.
type tierOutcome struct {
	sendStatus models.DeliveryStatus
	storageErr bool
}

// deliverOne runs the full retry sequence for a single subscriber and writes
// exactly one terminal log entry for it.
func (d *Dispatcher) deliverOne(ctx context.Context, runLog zerolog.Logger, runID string, sub models.Subscriber, quote models.Quote) tierOutcome {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			runLog.Warn().Str("to", sub.Email).Err(err).Msg("rate limiter wait interrupted")
		}
	}

	outcome := d.deliverer.Deliver(ctx, buildQuoteMessage(sub, quote))

	entry := &models.DeliveryLogEntry{
		RunID:     runID,
		Recipient: sub.Email,
		Status:    outcome.Status,
		Attempts:  outcome.Attempts,
		SentAt:    time.Now().UTC(),
	}
	if outcome.Err != nil {
		entry.ErrorDetail = outcome.Err.Error()
	}

	result := tierOutcome{sendStatus: outcome.Status}
	if err := d.logRepo.Record(ctx, entry); err != nil {
		metrics.StorageErrorsTotal.Inc()
		result.storageErr = true
		runLog.Error().Str("to", sub.Email).Err(err).Msg("failed to record delivery outcome")
	}

	switch outcome.Status {
	case models.DeliveryStatusSent:
		runLog.Info().Str("to", sub.Email).Int("attempts", outcome.Attempts).Msg("delivery succeeded")
		if err := d.directory.MarkDelivered(ctx, sub.Email, entry.SentAt); err != nil {
			runLog.Warn().Str("to", sub.Email).Err(err).Msg("failed to update last delivery timestamp")
		}
	case models.DeliveryStatusFailed:
		runLog.Error().Str("to", sub.Email).Int("attempts", outcome.Attempts).Err(outcome.Err).Msg("delivery failed after retries")
	}
	return result
}

// selectQuote picks one quote for the whole run: every recipient in a run
// receives the same quote. The pick rotates with the day of year so
// consecutive runs vary without any per-run randomness.
func selectQuote(batch []models.Quote, now time.Time) models.Quote {
	return batch[now.YearDay()%len(batch)]
}
