package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	rh "github.com/mindfuel/dispatch/route-handlers"
	"github.com/mindfuel/dispatch/webutil"
)

const (
	apiBasePath         = "/api"
	subscribersBasePath = "/subscribers"
	logsBasePath        = "/logs"
	summaryBasePath     = "/summary"
)

// SetupRoutes wires the operator-facing HTTP surface: subscriber
// provisioning, delivery log queries, and Prometheus metrics. The dispatch
// trigger itself is mounted separately in main alongside the scheduler.
func SetupRoutes(
	log zerolog.Logger,
	subscriberHandler *rh.SubscriberHandler,
	logHandler *rh.DeliveryLogHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Route(subscribersBasePath, func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(log, subscriberHandler.HandleGetSubscribers))
			r.Post("/", webutil.MakeHandler(log, subscriberHandler.HandleUpsertSubscriber))
		})
		r.Get(logsBasePath, webutil.MakeHandler(log, logHandler.HandleGetLogs))
		r.Get(summaryBasePath, webutil.MakeHandler(log, logHandler.HandleGetSummary))
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealthCheck)

	return r
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
