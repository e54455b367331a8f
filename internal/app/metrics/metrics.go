package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "worksuite",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worksuite",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "worksuite",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	collabOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worksuite",
			Subsystem: "collab",
			Name:      "ops_total",
			Help:      "Total number of editing operations applied.",
		},
		[]string{"outcome"},
	)

	collabSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "worksuite",
			Subsystem: "collab",
			Name:      "open_sessions",
			Help:      "Current number of open editing sessions.",
		},
	)

	scriptExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worksuite",
			Subsystem: "scripts",
			Name:      "executions_total",
			Help:      "Total number of script executions.",
		},
		[]string{"status"},
	)

	scriptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "worksuite",
			Subsystem: "scripts",
			Name:      "execution_duration_seconds",
			Help:      "Duration of script executions.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"status"},
	)

	reportRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worksuite",
			Subsystem: "reports",
			Name:      "runs_total",
			Help:      "Total number of report generations.",
		},
		[]string{"status"},
	)

	reportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "worksuite",
			Subsystem: "reports",
			Name:      "run_duration_seconds",
			Help:      "Duration of report generations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		collabOps,
		collabSessions,
		scriptExecutions,
		scriptDuration,
		reportRuns,
		reportDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordCollabOp records the outcome of one editing operation.
func RecordCollabOp(outcome string) {
	collabOps.WithLabelValues(outcome).Inc()
}

// SetOpenSessions records the current number of editing sessions.
func SetOpenSessions(n int) {
	collabSessions.Set(float64(n))
}

// RecordScriptExecution records metrics for executed scripts.
func RecordScriptExecution(status string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	scriptExecutions.WithLabelValues(status).Inc()
	scriptDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordReportRun records metrics for report generations.
func RecordReportRun(status string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	reportRuns.WithLabelValues(status).Inc()
	reportDuration.WithLabelValues(status).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource IDs so the path label stays low
// cardinality.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	// /api/v1/<resource>[/<id>[/<sub>...]]
	if len(parts) < 3 {
		return "/" + strings.Join(parts, "/")
	}
	path := "/api/" + parts[1] + "/" + parts[2]
	if len(parts) > 3 {
		path += "/:id"
	}
	if len(parts) > 4 {
		path += "/" + parts[4]
	}
	return path
}
