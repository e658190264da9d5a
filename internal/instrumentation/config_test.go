package instrumentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	config := ConfigFromEnv(mapEnv(nil))

	assert.Equal(t, "calhighlight", config.ServiceName)
	assert.True(t, config.Enabled)
	assert.Equal(t, ExporterPrometheus, config.MetricsExporter)
	assert.Equal(t, ExporterNone, config.TracingExporter)
	assert.Equal(t, DefaultMetricInterval, config.MetricInterval)
	assert.InDelta(t, 0.1, config.TraceSamplingRate, 1e-9)
	assert.False(t, config.DetailedLabels)
	assert.True(t, config.AuditLogging.Enabled)
	assert.NoError(t, config.Validate())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	config := ConfigFromEnv(mapEnv(map[string]string{
		"OTEL_SERVICE_NAME":       "calendar-test",
		"INSTRUMENTATION_ENABLED": "false",
		"METRICS_EXPORTER":        "stdout",
		"TRACING_EXPORTER":        "stdout",
		"METRICS_EXPORT_INTERVAL": "30s",
		"OTEL_TRACES_SAMPLER_ARG": "0.5",
		"METRICS_DETAILED_LABELS": "true",
		"AUDIT_LOGGING_ENABLED":   "false",
	}))

	assert.Equal(t, "calendar-test", config.ServiceName)
	assert.False(t, config.Enabled)
	assert.Equal(t, ExporterStdout, config.MetricsExporter)
	assert.Equal(t, ExporterStdout, config.TracingExporter)
	assert.Equal(t, 30*time.Second, config.MetricInterval)
	assert.InDelta(t, 0.5, config.TraceSamplingRate, 1e-9)
	assert.True(t, config.DetailedLabels)
	assert.False(t, config.AuditLogging.Enabled)
}

func TestConfigFromEnv_UnparsableKeepsDefault(t *testing.T) {
	config := ConfigFromEnv(mapEnv(map[string]string{
		"INSTRUMENTATION_ENABLED": "not-a-bool",
		"OTEL_TRACES_SAMPLER_ARG": "lots",
		"METRICS_EXPORT_INTERVAL": "soon",
		"OTEL_SERVICE_NAME":       "",
	}))

	assert.True(t, config.Enabled)
	assert.InDelta(t, 0.1, config.TraceSamplingRate, 1e-9)
	assert.Equal(t, DefaultMetricInterval, config.MetricInterval)
	assert.Equal(t, "calhighlight", config.ServiceName)
}

func TestDefaultConfig_ReadsProcessEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "from-process")
	assert.Equal(t, "from-process", DefaultConfig().ServiceName)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "valid defaults",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 0.1},
		},
		{
			name:    "sampling rate too high",
			config:  Config{TraceSamplingRate: 1.5},
			wantErr: "trace sampling rate",
		},
		{
			name:    "negative sampling rate",
			config:  Config{TraceSamplingRate: -0.1},
			wantErr: "trace sampling rate",
		},
		{
			name:    "unknown metrics exporter",
			config:  Config{MetricsExporter: "statsd"},
			wantErr: `invalid metrics exporter "statsd"`,
		},
		{
			name:    "unknown tracing exporter",
			config:  Config{TracingExporter: "jaeger"},
			wantErr: `invalid tracing exporter "jaeger"`,
		},
		{
			name:    "otlp tracing without endpoint",
			config:  Config{TracingExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "otlp metrics without endpoint",
			config:  Config{MetricsExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "negative interval",
			config:  Config{MetricInterval: -time.Second},
			wantErr: "metric interval",
		},
		{
			name:   "otlp with endpoint",
			config: Config{MetricsExporter: ExporterOTLP, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsAllProblems(t *testing.T) {
	config := Config{MetricsExporter: "statsd", TracingExporter: "jaeger", TraceSamplingRate: 2}
	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd")
	assert.Contains(t, err.Error(), "jaeger")
	assert.Contains(t, err.Error(), "trace sampling rate")
}
