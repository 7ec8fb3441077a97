package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	sheetFetches       *prometheus.CounterVec
	sheetFetchDuration *prometheus.HistogramVec
	chatRequests       *prometheus.CounterVec
	chatFallbacks      prometheus.Counter
	loginAttempts      *prometheus.CounterVec
	refreshCycles      *prometheus.CounterVec
	cacheAgeSeconds    prometheus.Gauge
	contentItems       *prometheus.GaugeVec
	snapshotsWritten   *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.sheetFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_sheet_fetches_total",
			Help: "Total number of spreadsheet range fetches",
		},
		[]string{"range", "status"},
	)
	r.sheetFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_sheet_fetch_duration_seconds",
			Help:    "Spreadsheet fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"range"},
	)
	r.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_chat_requests_total",
			Help: "Total number of assistant chat requests",
		},
		[]string{"model", "status"},
	)
	r.chatFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_chat_fallbacks_total",
			Help: "Chat requests retried on the fallback model",
		},
	)
	r.loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
	r.refreshCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_refresh_cycles_total",
			Help: "Dashboard refresh cycles by status",
		},
		[]string{"status"},
	)
	r.cacheAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_cache_age_seconds",
			Help: "Age of the cached dashboard content in seconds",
		},
	)
	r.contentItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_content_items",
			Help: "Number of cached content items by kind",
		},
		[]string{"kind"},
	)
	r.snapshotsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_snapshots_written_total",
			Help: "Raw sheet snapshots written to the archive",
		},
		[]string{"backend", "status"},
	)

	reg.MustRegister(r.sheetFetches)
	reg.MustRegister(r.sheetFetchDuration)
	reg.MustRegister(r.chatRequests)
	reg.MustRegister(r.chatFallbacks)
	reg.MustRegister(r.loginAttempts)
	reg.MustRegister(r.refreshCycles)
	reg.MustRegister(r.cacheAgeSeconds)
	reg.MustRegister(r.contentItems)
	reg.MustRegister(r.snapshotsWritten)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordSheetFetch records a spreadsheet range fetch.
func (r *Registry) RecordSheetFetch(rangeName, status string, duration float64) {
	r.sheetFetches.WithLabelValues(rangeName, status).Inc()
	r.sheetFetchDuration.WithLabelValues(rangeName).Observe(duration)
}

// RecordChatRequest records an assistant chat completion.
func (r *Registry) RecordChatRequest(model, status string) {
	r.chatRequests.WithLabelValues(model, status).Inc()
}

// RecordChatFallback records a retry on the fallback model.
func (r *Registry) RecordChatFallback() {
	r.chatFallbacks.Inc()
}

// RecordLogin records a login attempt outcome.
func (r *Registry) RecordLogin(outcome string) {
	r.loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordRefreshCycle records a dashboard refresh cycle.
func (r *Registry) RecordRefreshCycle(status string) {
	r.refreshCycles.WithLabelValues(status).Inc()
}

// SetCacheAge sets the age of the cached content.
func (r *Registry) SetCacheAge(seconds float64) {
	r.cacheAgeSeconds.Set(seconds)
}

// SetContentItems sets the cached item count for a content kind.
func (r *Registry) SetContentItems(kind string, count int) {
	r.contentItems.WithLabelValues(kind).Set(float64(count))
}

// RecordSnapshot records an archive snapshot write.
func (r *Registry) RecordSnapshot(backend, status string) {
	r.snapshotsWritten.WithLabelValues(backend, status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
