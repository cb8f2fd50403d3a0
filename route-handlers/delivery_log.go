package routehandlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mindfuel/dispatch/datastore"
	"github.com/mindfuel/dispatch/dispatch"
	"github.com/mindfuel/dispatch/models"
	"github.com/mindfuel/dispatch/webutil"
)

const dateQueryFormat = "2006-01-02"

type DeliveryLogHandler struct {
	Repo     *datastore.DeliveryLogRepository
	Reporter *dispatch.Reporter
}

func NewDeliveryLogHandler(repo *datastore.DeliveryLogRepository, reporter *dispatch.Reporter) *DeliveryLogHandler {
	return &DeliveryLogHandler{Repo: repo, Reporter: reporter}
}

// HandleGetLogs returns all terminal delivery log entries for a calendar
// date. Defaults to today when no date is supplied.
func (h *DeliveryLogHandler) HandleGetLogs(w http.ResponseWriter, r *http.Request) error {
	date, err := parseDateParam(r)
	if err != nil {
		return err
	}

	entries, err := h.Repo.EntriesForDate(r.Context(), date)
	if err != nil {
		return fmt.Errorf("failed to retrieve delivery logs: %w", err)
	}
	if entries == nil {
		entries = []models.DeliveryLogEntry{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, entries)
	return nil
}

// HandleGetSummary computes the day's summary report on demand without
// emailing it, for operator dashboards.
func (h *DeliveryLogHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) error {
	date, err := parseDateParam(r)
	if err != nil {
		return err
	}

	report, err := h.Reporter.Summarize(r.Context(), date)
	if err != nil {
		return fmt.Errorf("failed to compute summary: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, report)
	return nil
}

func parseDateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	date, err := time.Parse(dateQueryFormat, raw)
	if err != nil {
		return time.Time{}, webutil.ErrBadRequest("Invalid date, expected YYYY-MM-DD: " + raw)
	}
	return date, nil
}
