package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"route"},
	)

	// NotificationsParsed counts parsed notifications by transaction type
	NotificationsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notifications_parsed_total",
			Help: "Total number of parsed notifications",
		},
		[]string{"type"},
	)

	// MissingFields counts parsed notifications lacking a field
	MissingFields = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notification_missing_fields_total",
			Help: "Parsed notifications with an empty field",
		},
		[]string{"field"},
	)
)

// RecordParsed counts one parsed notification and each field it left empty.
func RecordParsed(txType string, missing ...string) {
	NotificationsParsed.WithLabelValues(txType).Inc()
	for _, field := range missing {
		MissingFields.WithLabelValues(field).Inc()
	}
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// NewStatusRecorder wraps w with a default status of 200.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	if rec, ok := w.(*StatusRecorder); ok {
		return rec
	}
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Instrument collects Prometheus metrics for requests served by next under route.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ActiveRequests.WithLabelValues(route).Inc()
		defer ActiveRequests.WithLabelValues(route).Dec()

		start := time.Now()
		rec := NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.Status)).Inc()
	})
}
