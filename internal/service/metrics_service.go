package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	eventsProcessed *prometheus.CounterVec
	classifications *prometheus.CounterVec
	unclassified    prometheus.Counter
	conversions     prometheus.Counter
	formalTardies   prometheus.Counter
	escalations     *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	ledgerRetries   prometheus.Counter
	queueDepth      *prometheus.GaugeVec
}

// NewMetricsService registers the engine's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	eventsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_events_processed_total",
		Help: "Attendance events processed, labelled by result",
	}, []string{"result"})

	classifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tardiness_classifications_total",
		Help: "Classified outcomes by tardiness kind",
	}, []string{"kind"})

	unclassified := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tardiness_unclassified_total",
		Help: "Positive lateness falling outside all configured rule ranges",
	})

	conversions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_conversions_total",
		Help: "Accumulation-threshold conversions performed",
	})

	formalTardies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_formal_tardies_total",
		Help: "Formal tardy units produced by conversions",
	})

	escalations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalations_total",
		Help: "Escalation evaluations that crossed a threshold, by outcome",
	}, []string{"outcome"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_requests_total",
		Help: "Notification requests handed to the dispatcher, by status",
	}, []string{"status"})

	ledgerRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_concurrency_retries_total",
		Help: "Ledger applications retried after a serialization conflict",
	})

	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "job_queue_depth",
		Help: "Jobs waiting in an in-memory queue",
	}, []string{"queue"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, eventsProcessed, classifications, unclassified,
		conversions, formalTardies, escalations, notifications, ledgerRetries, queueDepth, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		eventsProcessed: eventsProcessed,
		classifications: classifications,
		unclassified:    unclassified,
		conversions:     conversions,
		formalTardies:   formalTardies,
		escalations:     escalations,
		notifications:   notifications,
		ledgerRetries:   ledgerRetries,
		queueDepth:      queueDepth,
	}
}

// Handler returns the Prometheus scrape handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveEvent counts an event application by result
// (applied, duplicate, unclassified, review, on_time, error).
func (m *MetricsService) ObserveEvent(result string) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(result).Inc()
}

// ObserveClassification counts one classified outcome.
func (m *MetricsService) ObserveClassification(kind string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(kind).Inc()
}

// ObserveUnclassified counts a configuration-gap lateness.
func (m *MetricsService) ObserveUnclassified() {
	if m == nil {
		return
	}
	m.unclassified.Inc()
}

// ObserveConversion counts a threshold conversion and its yield.
func (m *MetricsService) ObserveConversion(formalDelta int) {
	if m == nil {
		return
	}
	m.conversions.Inc()
	m.formalTardies.Add(float64(formalDelta))
}

// ObserveEscalation counts a threshold crossing by outcome (fired, suppressed).
func (m *MetricsService) ObserveEscalation(outcome string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(outcome).Inc()
}

// ObserveNotification counts a notification request by status (requested, delivered, failed).
func (m *MetricsService) ObserveNotification(status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(status).Inc()
}

// ObserveLedgerRetry counts a retried ledger application.
func (m *MetricsService) ObserveLedgerRetry() {
	if m == nil {
		return
	}
	m.ledgerRetries.Inc()
}

// SetQueueDepth reports the buffered depth of a job queue.
func (m *MetricsService) SetQueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(queue).Set(float64(depth))
}
