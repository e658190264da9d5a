package instrumentation

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Label values shared by the recorders.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
)

// Exporter names accepted by METRICS_EXPORTER and TRACING_EXPORTER.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is the push interval of the periodic metric readers.
const DefaultMetricInterval = 10 * time.Second

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config holds the OpenTelemetry settings of one process.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// ServiceInstanceID defaults to the hostname when empty.
	ServiceInstanceID string

	// Enabled=false makes every recorder a no-op.
	Enabled bool

	MetricsExporter string
	TracingExporter string
	// MetricInterval applies to the otlp and stdout metric exporters.
	MetricInterval time.Duration

	// OTLPEndpoint is host:port without a scheme.
	OTLPEndpoint string
	OTLPInsecure bool

	TraceSamplingRate float64

	// DetailedLabels adds the session fingerprint to tool metrics.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool
}

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv builds a Config from lookup. Unset or unparsable values keep
// their defaults.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	env := envReader(lookup)
	return Config{
		ServiceName:       env.str("OTEL_SERVICE_NAME", "calhighlight"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: env.str("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:           env.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   env.str("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   env.str("TRACING_EXPORTER", ExporterNone),
		MetricInterval:    env.duration("METRICS_EXPORT_INTERVAL", DefaultMetricInterval),
		OTLPEndpoint:      env.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: env.float("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    env.boolean("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled: env.boolean("AUDIT_LOGGING_ENABLED", true),
		},
	}
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of %v", c.MetricsExporter, metricsExporters))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of %v", c.TracingExporter, tracingExporters))
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		errs = append(errs, errors.New("OTLP endpoint is required when an otlp exporter is selected"))
	}
	if c.MetricInterval < 0 {
		errs = append(errs, fmt.Errorf("metric interval must not be negative, got %s", c.MetricInterval))
	}

	return errors.Join(errs...)
}

func (c *Config) metricInterval() time.Duration {
	if c.MetricInterval <= 0 {
		return DefaultMetricInterval
	}
	return c.MetricInterval
}

type envReader func(string) (string, bool)

func (e envReader) str(key, def string) string {
	if v, ok := e(key); ok && v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return b
	}
	return def
}

func (e envReader) float(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(e.str(key, ""), 64); err == nil {
		return f
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return def
}
