package scheduler

import (
	"context"
	"errors"
	"net/http"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mindfuel/dispatch/dispatch"
	"github.com/mindfuel/dispatch/webutil"
)

// Scheduler triggers dispatch runs. Runs are normally triggered externally —
// a cron-style HTTP tick from a platform scheduler or a manual curl — but an
// optional in-process cron schedule is supported for single-node deploys.
type Scheduler struct {
	dispatcher *dispatch.Dispatcher
	cron       *cron.Cron
	log        zerolog.Logger
}

func New(dispatcher *dispatch.Dispatcher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// HandleTick is an HTTP handler that triggers one dispatch run. A tick that
// arrives while a run is in flight is refused with 409 rather than queued.
func (s *Scheduler) HandleTick(w http.ResponseWriter, r *http.Request) {
	s.log.Info().Msg("run triggered via HTTP tick")

	report, err := s.dispatcher.Run(r.Context())
	if err != nil {
		if errors.Is(err, dispatch.ErrRunInProgress) {
			webutil.RespondWithError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("dispatch run aborted")
		webutil.RespondWithError(w, http.StatusBadGateway, "dispatch run aborted: "+err.Error())
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, report)
}

// StartCron schedules runs on the given cron expression. It is a no-op when
// spec is empty, leaving triggering entirely to the external scheduler.
func (s *Scheduler) StartCron(ctx context.Context, spec string) error {
	if spec == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.dispatcher.Run(ctx); err != nil {
			if errors.Is(err, dispatch.ErrRunInProgress) {
				s.log.Warn().Msg("cron tick skipped: previous run still in flight")
				return
			}
			s.log.Error().Err(err).Msg("scheduled dispatch run aborted")
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	s.cron = c
	s.log.Info().Str("cron", spec).Msg("in-process schedule started")
	return nil
}

// Stop halts the in-process schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
