package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestRegisterWithFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { RegisterWith(reg) })
}

func TestObserveDelivery(t *testing.T) {
	before := testutil.ToFloat64(DeliveriesTotal.WithLabelValues("failure"))
	ObserveDelivery(15*time.Millisecond, false)
	assert.Equal(t, before+1, testutil.ToFloat64(DeliveriesTotal.WithLabelValues("failure")))
}

func TestIncWebhookEvent(t *testing.T) {
	before := testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("chatwoot", "suppressed"))
	IncWebhookEvent("chatwoot", "suppressed")
	assert.Equal(t, before+1, testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("chatwoot", "suppressed")))
}
