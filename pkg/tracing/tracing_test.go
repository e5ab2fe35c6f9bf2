package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"relay/internal/config"
)

func TestInitDisabled(t *testing.T) {
	tp, err := Init(config.TracingConfig{Enabled: false}, "relay-service")
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.End()
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		cfg  config.SamplerConfig
		want string
	}{
		{cfg: config.SamplerConfig{Type: "always_off"}, want: sdktrace.NeverSample().Description()},
		{cfg: config.SamplerConfig{Type: ""}, want: sdktrace.AlwaysSample().Description()},
		{cfg: config.SamplerConfig{Type: "traceidratio", Param: 0.5}, want: sdktrace.TraceIDRatioBased(0.5).Description()},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, createSampler(tt.cfg).Description(), tt.cfg.Type)
	}
}
