package metrics

import "github.com/prometheus/client_golang/prometheus"

var DeliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deliveries_total",
		Help: "Terminal delivery outcomes by transport and status",
	},
	[]string{"transport", "status"},
)

var DeliveryRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "delivery_retries_total",
		Help: "Retries scheduled after transient delivery failures",
	},
	[]string{"transport"},
)

var ContentFetchFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "content_fetch_failures_total",
		Help: "Dispatch runs aborted because the content source failed",
	},
)

var DispatchRunDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "dispatch_run_duration_seconds",
		Help:    "Wall-clock duration of complete dispatch runs",
		Buckets: prometheus.DefBuckets,
	},
)

var StorageErrorsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "storage_errors_total",
		Help: "Delivery log writes that failed (distinct from failed sends)",
	},
)

// Register installs all engine metrics on the default registry. Call once
// from main.
func Register() {
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryRetriesTotal)
	prometheus.MustRegister(ContentFetchFailuresTotal)
	prometheus.MustRegister(DispatchRunDuration)
	prometheus.MustRegister(StorageErrorsTotal)
}
