package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It includes counters for bot traffic, logins, cache operations and allocation
// submissions, and histograms for database, backend API and report durations.
type Metrics struct {
	CommandReceived      *prometheus.CounterVec   // Counter for received commands and button presses
	SentMessages         *prometheus.CounterVec   // Counter for sent messages
	Logins               *prometheus.CounterVec   // Counter for sign-in attempts by outcome
	DBQueryDuration      *prometheus.HistogramVec // Histogram for database query durations
	APIRequestDuration   *prometheus.HistogramVec // Histogram for Talent Fit backend requests
	CacheOps             *prometheus.CounterVec   // Counter for redis cache operations
	ReportGeneration     *prometheus.HistogramVec // Histogram for excel report durations
	AllocationsSubmitted *prometheus.CounterVec   // Counter for allocation batches by outcome
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
//
// Parameters:
//   - reg: A Prometheus Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: start, login, projects, allocate_submit
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, edit, file, error, respond
		Logins: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "talentfit_logins_total",
			Help: "Sign-in attempts by resulting profile status",
		}, []string{"result"}), // result: exists, needs_creation, error, rejected
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "talentfit_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: merge_draft, append_change
		APIRequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "talentfit_api_request_duration_seconds",
			Help:    "Duration of requests to the Talent Fit backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
		CacheOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "talentfit_cache_operations_total",
			Help: "Redis cache operations",
		}, []string{"operation", "result"}), // operation: get, set; result: hit, miss, error, success
		ReportGeneration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "talentfit_report_generation_duration_seconds",
			Help: "Duration of report excel generation.",
		}, []string{"report"}), // report: projects, allocations
		AllocationsSubmitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "talentfit_allocations_submitted_total",
			Help: "Allocation batches submitted to the backend",
		}, []string{"result"}), // result: success, failure, in_flight
	}
}
