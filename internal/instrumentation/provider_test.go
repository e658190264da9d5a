package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "calhighlight-test"})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.NotNil(t, provider.Metrics())
	assert.NotNil(t, provider.Tracer("test"))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "prometheus without tracing",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name: "stdout for both",
			config: Config{
				MetricsExporter:   ExporterStdout,
				TracingExporter:   ExporterStdout,
				MetricInterval:    time.Minute,
				TraceSamplingRate: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			tt.config.Enabled = true
			tt.config.ServiceName = "calhighlight-test"
			tt.config.ServiceVersion = "1.0.0"

			provider, err := NewProvider(ctx, tt.config)
			require.NoError(t, err)
			t.Cleanup(func() { _ = provider.Shutdown(ctx) })

			assert.True(t, provider.Enabled())
			assert.NotNil(t, provider.Metrics())
			assert.NotNil(t, provider.Tracer("test"))
		})
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"invalid metrics exporter", Config{Enabled: true, MetricsExporter: "invalid", TracingExporter: ExporterNone}},
		{"invalid tracing exporter", Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: "invalid"}},
		{"otlp without endpoint", Config{Enabled: true, MetricsExporter: ExporterOTLP, TracingExporter: ExporterNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(testContext(t), tt.config)
			assert.ErrorContains(t, err, "invalid instrumentation config")
		})
	}
}

func TestProvider_NilSafe(t *testing.T) {
	var p *Provider
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Metrics())
	assert.NotNil(t, p.Tracer("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}
