// Package instrumentation provides OpenTelemetry instrumentation for the
// calhighlight API server and MCP server.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, calendar provider calls, OAuth
//     exchanges, language model calls and tool invocations
//   - Distributed tracing for request flows and upstream calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Calendar Provider Metrics:
//   - calendar_provider_operations_total: Counter by provider, operation, status
//   - calendar_provider_operation_duration_seconds: Histogram of provider call durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of authorization code exchanges by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// Language Model Metrics:
//   - llm_requests_total: Counter of model calls by model, operation, status
//   - llm_request_duration_seconds: Histogram of model call durations
//   - llm_tokens_total: Counter of prompt and completion tokens
//
// Tool Metrics:
//   - tool_invocations_total: Counter of assistant and MCP tool invocations
//   - tool_duration_seconds: Histogram of tool execution durations
//
// # Tracing
//
// Spans are created for:
//   - HTTP request handling (via otelhttp)
//   - Calendar provider calls (calendar.<provider>.<operation>)
//   - Language model calls (llm.<operation>)
//   - Tool invocations (tool.<name>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: calhighlight)
//   - METRICS_EXPORT_INTERVAL: Push interval of the otlp and stdout metric exporters (default: 10s)
//   - METRICS_DETAILED_LABELS: Add the session fingerprint to tool metrics (default: false)
//   - AUDIT_LOGGING_ENABLED: Emit tool_executed/tool_failed audit records (default: true)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordProviderOperation(ctx, "google", instrumentation.OperationList, "success", time.Since(start))
package instrumentation
