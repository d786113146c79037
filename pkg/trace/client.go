// Package trace wraps the OpenTelemetry SDK to provide per-case execution
// tracing: each case opens a root span, child spans mark tool/chat-model
// invocations, and a local span recorder computes a models.TraceSummary
// without depending on a remote trace-query API.
package trace

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/neon-eval/evalengine/pkg/models"
)

// Attribute keys used to classify spans when building a TraceSummary.
const (
	AttrSpanKind = "span.kind"
	KindTool     = "TOOL"
	KindChat     = "CHAT_MODEL"

	// AttrSource tags the experiment a span belongs to. The orchestrator
	// sets it to "{SourcePrefix}-{suite_name}": "neon-{suite_name}" for
	// server-triggered runs, "neon-local-{suite_name}" for CLI runs.
	AttrSource = "eval.source"
)

// Client manages the tracer provider and the in-process span recorder used
// to compute TraceSummary for each case.
type Client struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
	recorder *spanRecorder
}

// Config configures where spans are exported. Endpoint may be empty, in
// which case a no-op exporter is used (spans are still recorded locally
// for TraceSummary purposes, just never shipped to a collector).
type Config struct {
	Endpoint    string
	ServiceName string
}

// NewClient builds a Client exporting to an OTLP/gRPC collector (best
// effort — export failures are logged, never fail the case).
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rec := newSpanRecorder()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(rec),
	}

	if cfg.Endpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &Client{
		provider: provider,
		tracer:   provider.Tracer("neon-eval/evalengine"),
		recorder: rec,
	}, nil
}

// Shutdown flushes pending spans and releases the exporter connection.
// Failures are logged, not returned, matching spec.md's "trace backend
// failures never fail the case" stance extended to shutdown.
func (c *Client) Shutdown(ctx context.Context) {
	if err := c.provider.Shutdown(ctx); err != nil {
		slog.Warn("trace provider shutdown failed", "error", err)
	}
}

// StartCase opens the root span for one case execution: "{runID}/{caseName}"
// tagged with the suite's tags plus the experiment source tag.
func (c *Client) StartCase(ctx context.Context, runID, caseName, source string, tags []string) (context.Context, oteltrace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(tags)+1)
	attrs = append(attrs, attribute.String(AttrSource, source))
	for _, t := range tags {
		attrs = append(attrs, attribute.String("eval.tag", t))
	}
	return c.tracer.Start(ctx, runID+"/"+caseName, oteltrace.WithAttributes(attrs...))
}

// StartToolSpan opens a child span marking a single tool invocation.
func (c *Client) StartToolSpan(ctx context.Context, toolName string) (context.Context, oteltrace.Span) {
	return c.tracer.Start(ctx, "tool:"+toolName,
		oteltrace.WithAttributes(attribute.String(AttrSpanKind, KindTool)))
}

// StartChatSpan opens a child span marking a single chat-model call.
func (c *Client) StartChatSpan(ctx context.Context, model string) (context.Context, oteltrace.Span) {
	return c.tracer.Start(ctx, "chat:"+model,
		oteltrace.WithAttributes(attribute.String(AttrSpanKind, KindChat)))
}

// Summary computes a TraceSummary by walking every span recorded under
// traceID, classifying each by its span.kind attribute.
func (c *Client) Summary(traceID oteltrace.TraceID) models.TraceSummary {
	spans := c.recorder.spansForTrace(traceID)

	summary := models.TraceSummary{TraceID: traceID.String()}
	for _, s := range spans {
		summary.SpanCount++
		dur := s.end.Sub(s.start)
		summary.TotalMS += dur.Milliseconds()

		switch s.kind {
		case KindTool:
			summary.ToolCallCount++
			summary.ToolMS += dur.Milliseconds()
		case KindChat:
			summary.ChatCallCount++
			summary.ChatMS += dur.Milliseconds()
		}
	}
	return summary
}

// recordedSpan is the minimal shape the recorder keeps per ended span.
type recordedSpan struct {
	kind  string
	start time.Time
	end   time.Time
}
