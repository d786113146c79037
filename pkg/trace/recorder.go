package trace

import (
	"context"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// spanRecorder is a custom sdktrace.SpanProcessor that accumulates each
// case's span tree as spans end, so TraceSummary can be computed locally
// without depending on a remote trace-query API. Spans are grouped by
// trace ID and must be released with forget once their summary has been
// read, to bound memory in a long-running server process.
type spanRecorder struct {
	mu    sync.Mutex
	spans map[oteltrace.TraceID][]recordedSpan
}

func newSpanRecorder() *spanRecorder {
	return &spanRecorder{spans: make(map[oteltrace.TraceID][]recordedSpan)}
}

func (r *spanRecorder) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (r *spanRecorder) OnEnd(s sdktrace.ReadOnlySpan) {
	kind := ""
	for _, a := range s.Attributes() {
		if string(a.Key) == AttrSpanKind {
			kind = a.Value.AsString()
			break
		}
	}

	rec := recordedSpan{
		kind:  kind,
		start: s.StartTime(),
		end:   s.EndTime(),
	}

	tid := s.SpanContext().TraceID()
	r.mu.Lock()
	r.spans[tid] = append(r.spans[tid], rec)
	r.mu.Unlock()
}

func (r *spanRecorder) Shutdown(context.Context) error { return nil }

func (r *spanRecorder) ForceFlush(context.Context) error { return nil }

func (r *spanRecorder) spansForTrace(tid oteltrace.TraceID) []recordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedSpan(nil), r.spans[tid]...)
}

// Forget releases the recorded spans for a trace once its TraceSummary has
// been computed and persisted, so long-running processes don't retain
// every case's span tree indefinitely.
func (c *Client) Forget(traceID oteltrace.TraceID) {
	c.recorder.mu.Lock()
	delete(c.recorder.spans, traceID)
	c.recorder.mu.Unlock()
}
