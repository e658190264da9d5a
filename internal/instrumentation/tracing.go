package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer every span in this module comes from.
const TracerName = "github.com/teemow/calhighlight"

// Span attribute keys.
const (
	SpanAttrTool       = "tool.name"
	SpanAttrProvider   = "calendar.provider"
	SpanAttrOperation  = "calendar.operation"
	SpanAttrEventID    = "calendar.event_id"
	SpanAttrEventCount = "calendar.event_count"
	SpanAttrModel      = "llm.model"
)

// The global provider is looked up per span so tests can swap it.
func start(ctx context.Context, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
}

// StartToolSpan starts an internal span named tool.<name>.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "tool."+toolName, trace.SpanKindInternal,
		append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...))
}

// StartProviderSpan starts a client span for a calendar provider call,
// named calendar.<provider>.<operation>.
func StartProviderSpan(ctx context.Context, provider, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "calendar."+provider+"."+operation, trace.SpanKindClient,
		append([]attribute.KeyValue{
			attribute.String(SpanAttrProvider, provider),
			attribute.String(SpanAttrOperation, operation),
		}, attrs...))
}

// StartModelSpan starts a client span named llm.<operation>.
func StartModelSpan(ctx context.Context, model, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "llm."+operation, trace.SpanKindClient,
		append([]attribute.KeyValue{attribute.String(SpanAttrModel, model)}, attrs...))
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace id of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span id of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}
