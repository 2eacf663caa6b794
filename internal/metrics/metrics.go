package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fuel_reconcile_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reconcileRuns    *prometheus.CounterVec
	reconcileLatency *prometheus.HistogramVec
	recordsEmitted   prometheus.Counter
	violationsTotal  *prometheus.CounterVec

	fleetRequests *prometheus.CounterVec
	fleetLatency  *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers the service metrics on the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		reconcileRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total reconciliation runs by source and result",
			},
			[]string{"source", "result"},
		)
		reconcileLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_latency_seconds",
				Help:    "Reconciliation latency in seconds, fetch included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		recordsEmitted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_total",
				Help: "Total day records produced",
			},
		)
		violationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "violations_total",
				Help: "Total input violations by kind",
			},
			[]string{"kind"},
		)

		fleetRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fleet_api_requests_total",
				Help: "Total fleet API requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		)
		fleetLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fleet_api_latency_seconds",
				Help:    "Fleet API latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		)

		prometheus.MustRegister(
			reconcileRuns,
			reconcileLatency,
			recordsEmitted,
			violationsTotal,
			fleetRequests,
			fleetLatency,
			exportTotal,
			httpRequests,
			httpLatency,
		)
	})
}

// ObserveReconcile records one reconciliation run.
func ObserveReconcile(source, result string, records int, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reconcileRuns != nil {
		reconcileRuns.WithLabelValues(source, result).Inc()
	}
	if reconcileLatency != nil {
		reconcileLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
	if recordsEmitted != nil && records > 0 {
		recordsEmitted.Add(float64(records))
	}
}

// AddViolations increments the violation counter for kind.
func AddViolations(kind string, count int) {
	if count <= 0 {
		return
	}
	if violationsTotal != nil {
		violationsTotal.WithLabelValues(kind).Add(float64(count))
	}
}

// ObserveFleetRequest records one upstream call.
func ObserveFleetRequest(endpoint, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if fleetRequests != nil {
		fleetRequests.WithLabelValues(endpoint, result).Inc()
	}
	if fleetLatency != nil {
		fleetLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
	}
}

// IncExport increments the export counter.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, method, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
