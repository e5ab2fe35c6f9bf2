package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_webhook_events_total",
			Help: "Total number of webhook events by provider and outcome (count)",
		},
		[]string{"provider", "outcome"},
	)

	WebhookProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_webhook_processing_duration_ms",
			Help:    "Time from webhook receipt to response in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"outcome"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Total number of per-recipient delivery attempts (count)",
		},
		[]string{"status"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_delivery_duration_ms",
			Help:    "Duration of a single send call in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	RateLimitWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_rate_limit_wait_duration_ms",
			Help:    "Time spent waiting for an outbound permit in milliseconds",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures recorded by circuit breaker (count)",
		},
		[]string{"name"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		RegisterWith(prometheus.DefaultRegisterer)
	})
}

func RegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(WebhookEventsTotal)
	reg.MustRegister(WebhookProcessingDuration)
	reg.MustRegister(DeliveriesTotal)
	reg.MustRegister(DeliveryDuration)
	reg.MustRegister(RateLimitWaitDuration)
	reg.MustRegister(CircuitBreakerState)
	reg.MustRegister(CircuitBreakerRequests)
	reg.MustRegister(CircuitBreakerFailures)
}

func IncWebhookEvent(provider, outcome string) {
	WebhookEventsTotal.WithLabelValues(provider, outcome).Inc()
}

func ObserveWebhookDuration(duration time.Duration, outcome string) {
	WebhookProcessingDuration.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

func ObserveDelivery(duration time.Duration, success bool) {
	status := statusLabel(success)
	DeliveriesTotal.WithLabelValues(status).Inc()
	DeliveryDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func ObserveRateLimitWait(duration time.Duration, granted bool) {
	status := "granted"
	if !granted {
		status = "aborted"
	}
	RateLimitWaitDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
