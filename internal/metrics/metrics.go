package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	Reports           *prometheus.CounterVec
	Checkins          prometheus.Counter
	ReconcileDuration prometheus.Histogram
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		Reports: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guestlist_reports_total",
			Help: "Attendance report requests by outcome.",
		}, []string{"status"}),
		Checkins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guestlist_checkins_total",
			Help: "Check-in events appended to the log.",
		}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "guestlist_reconcile_seconds",
			Help:    "Time spent reconciling roster and check-in log.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementReports counts one report request with its outcome label.
func (m *Metrics) IncrementReports(status string) {
	m.Reports.WithLabelValues(status).Inc()
}

// IncrementCheckins counts one appended check-in.
func (m *Metrics) IncrementCheckins() {
	m.Checkins.Inc()
}

// ObserveReconcile records one reconciliation pass.
func (m *Metrics) ObserveReconcile(d time.Duration) {
	m.ReconcileDuration.Observe(d.Seconds())
}
