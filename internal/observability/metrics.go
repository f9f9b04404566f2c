// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Backtest metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	TradesExecuted  *prometheus.CounterVec
	DegenerateRuns  prometheus.Counter
	PathsGenerated  prometheus.Counter
	PointsGenerated prometheus.Counter

	// Oracle metrics
	OraclePredictions *prometheus.CounterVec
	OracleFallbacks   *prometheus.CounterVec
	OracleLatency     *prometheus.HistogramVec

	// Archive metrics
	ArchiveWrites      *prometheus.CounterVec
	VerificationsTotal *prometheus.CounterVec

	// Transport metrics
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	WSSessionsActive prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith registers metrics on reg. Tests pass a fresh registry.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "backtest_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Backtest metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by strategy and status",
		}, []string{"strategy", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"strategy"}),
		TradesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_total",
			Help:      "Total number of simulated trades by side",
		}, []string{"side"}),
		DegenerateRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "degenerate_runs_total",
			Help:      "Runs whose price series was too short to trade",
		}),
		PathsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricepath",
			Name:      "paths_generated_total",
			Help:      "Total number of synthetic price paths generated",
		}),
		PointsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricepath",
			Name:      "points_generated_total",
			Help:      "Total number of synthetic price points generated",
		}),

		// Oracle metrics
		OraclePredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "predictions_total",
			Help:      "Total number of oracle predictions served by source",
		}, []string{"source"}),
		OracleFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "fallbacks_total",
			Help:      "Total number of oracle fallbacks by reason",
		}, []string{"reason"}),
		OracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "latency_seconds",
			Help:      "Primary oracle call latency in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"source"}),

		// Archive metrics
		ArchiveWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "writes_total",
			Help:      "Total number of price path archive writes by backend and status",
		}, []string{"backend", "status"}),
		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "verifications_total",
			Help:      "Total number of archived path verifications by outcome",
		}, []string{"outcome"}),

		// Transport metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		WSSessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "sessions_active",
			Help:      "Number of open websocket backtest sessions",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun records a finished backtest run.
func RecordRun(strategy, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(strategy, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// RecordTrade increments the simulated trades counter.
func RecordTrade(side string) {
	DefaultMetrics.TradesExecuted.WithLabelValues(side).Inc()
}

// RecordDegenerateRun increments the degenerate runs counter.
func RecordDegenerateRun() {
	DefaultMetrics.DegenerateRuns.Inc()
}

// RecordPathGenerated records a generated price path.
func RecordPathGenerated(points int) {
	DefaultMetrics.PathsGenerated.Inc()
	DefaultMetrics.PointsGenerated.Add(float64(points))
}

// RecordOraclePrediction increments the predictions counter for a source.
func RecordOraclePrediction(source string) {
	DefaultMetrics.OraclePredictions.WithLabelValues(source).Inc()
}

// RecordOracleFallback increments the fallbacks counter.
func RecordOracleFallback(reason string) {
	DefaultMetrics.OracleFallbacks.WithLabelValues(reason).Inc()
}

// RecordOracleLatency records primary oracle latency.
func RecordOracleLatency(source string, seconds float64) {
	DefaultMetrics.OracleLatency.WithLabelValues(source).Observe(seconds)
}

// RecordArchiveWrite records an archive write attempt.
func RecordArchiveWrite(backend string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.ArchiveWrites.WithLabelValues(backend, status).Inc()
}

// RecordVerification records a path verification outcome.
func RecordVerification(match bool) {
	outcome := "match"
	if !match {
		outcome = "divergent"
	}
	DefaultMetrics.VerificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route string, code int, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, httpCode(code)).Inc()
	DefaultMetrics.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// WSSessionOpened increments the active websocket sessions gauge.
func WSSessionOpened() {
	DefaultMetrics.WSSessionsActive.Inc()
}

// WSSessionClosed decrements the active websocket sessions gauge.
func WSSessionClosed() {
	DefaultMetrics.WSSessionsActive.Dec()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
