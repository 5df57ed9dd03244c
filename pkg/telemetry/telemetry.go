// Package telemetry wires the gateway's counters, histograms and spans into
// the process-wide OpenTelemetry providers. The host process decides where
// (and whether) anything is exported; with the default no-op providers every
// call here is free.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName identifies the gateway in exported telemetry.
	ServiceName = "mcp-gateway"

	// InstrumentationName scopes the gateway's tracer and meter.
	InstrumentationName = "github.com/converge-ai/mcp-gateway"
)

var (
	tracer trace.Tracer
	meter  metric.Meter

	// ToolCalls counts tool invocations, attributed to server and tool.
	ToolCalls metric.Int64Counter

	// ToolDuration tracks tool call latency in milliseconds.
	ToolDuration metric.Float64Histogram

	// ToolErrors counts failed tool invocations.
	ToolErrors metric.Int64Counter

	// ResourceReads counts resource read operations.
	ResourceReads metric.Int64Counter

	// HealthChecks counts server health probes by outcome.
	HealthChecks metric.Int64Counter
)

// Init picks up the global providers and creates the gateway's instruments.
// Telemetry must never break the gateway, so instrument creation errors are
// swallowed: a nil instrument is skipped by the record helpers.
func Init() {
	tracer = otel.GetTracerProvider().Tracer(InstrumentationName)
	meter = otel.GetMeterProvider().Meter(InstrumentationName)

	ToolCalls, _ = meter.Int64Counter("gateway.tool.calls",
		metric.WithDescription("Number of tool calls dispatched"),
		metric.WithUnit("1"))
	ToolDuration, _ = meter.Float64Histogram("gateway.tool.duration",
		metric.WithDescription("Duration of tool call execution"),
		metric.WithUnit("ms"))
	ToolErrors, _ = meter.Int64Counter("gateway.tool.errors",
		metric.WithDescription("Number of failed tool calls"),
		metric.WithUnit("1"))
	ResourceReads, _ = meter.Int64Counter("gateway.resource.reads",
		metric.WithDescription("Number of resource reads"),
		metric.WithUnit("1"))
	HealthChecks, _ = meter.Int64Counter("gateway.health.checks",
		metric.WithDescription("Number of server health probes"),
		metric.WithUnit("1"))
}

// StartToolCallSpan opens a client span for one tool dispatch.
func StartToolCallSpan(ctx context.Context, serverName, toolName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, "gateway.tool.call",
		trace.WithAttributes(
			attribute.String("mcp.server.name", serverName),
			attribute.String("mcp.tool.name", toolName),
		),
		trace.WithSpanKind(trace.SpanKindClient))
}

// StartResourceSpan opens a client span for one resource read.
func StartResourceSpan(ctx context.Context, serverName, uri string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, "gateway.resource.read",
		trace.WithAttributes(
			attribute.String("mcp.server.name", serverName),
			attribute.String("mcp.resource.uri", uri),
		),
		trace.WithSpanKind(trace.SpanKindClient))
}

// RecordToolCall counts one dispatched tool call and its duration.
func RecordToolCall(ctx context.Context, serverName, toolName string, durationMS float64) {
	attrs := metric.WithAttributes(
		attribute.String("mcp.server.name", serverName),
		attribute.String("mcp.tool.name", toolName),
	)
	if ToolCalls != nil {
		ToolCalls.Add(ctx, 1, attrs)
	}
	if ToolDuration != nil {
		ToolDuration.Record(ctx, durationMS, attrs)
	}
}

// RecordToolError counts one failed tool call.
func RecordToolError(ctx context.Context, serverName, toolName string) {
	if ToolErrors == nil {
		return
	}
	ToolErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mcp.server.name", serverName),
		attribute.String("mcp.tool.name", toolName),
	))
}

// RecordResourceRead counts one resource read.
func RecordResourceRead(ctx context.Context, serverName, uri string) {
	if ResourceReads == nil {
		return
	}
	ResourceReads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mcp.server.name", serverName),
		attribute.String("mcp.resource.uri", uri),
	))
}

// RecordHealthCheck counts one health probe with its outcome.
func RecordHealthCheck(ctx context.Context, serverName, status string) {
	if HealthChecks == nil {
		return
	}
	HealthChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mcp.server.name", serverName),
		attribute.String("mcp.health.status", status),
	))
}
