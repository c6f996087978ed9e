package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "islandstay"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "status"},
	)

	remoteCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_duration_seconds",
			Help:      "Latency of calls to the hosted backend by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle events by type.",
		},
		[]string{"event"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, remoteCalls, bookingTransitions)
	})
}

// IncHTTP increments the counter for a route and status class ("2xx", "4xx", ...).
func IncHTTP(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}

// ObserveRemoteCall records one call to the remote service.
func ObserveRemoteCall(op, outcome string, dur time.Duration) {
	remoteCalls.WithLabelValues(op, outcome).Observe(dur.Seconds())
}

// IncBookingTransition counts a booking lifecycle event.
func IncBookingTransition(event string) {
	bookingTransitions.WithLabelValues(event).Inc()
}
