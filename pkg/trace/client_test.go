package trace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSummaryClassifiesSpansByKind(t *testing.T) {
	ctx := context.Background()
	c, err := NewClient(ctx, Config{ServiceName: "evalengine-test"})
	require.NoError(t, err)
	defer c.Shutdown(ctx)

	caseCtx, rootSpan := c.StartCase(ctx, "run-1", "adds item to cart", "neon-local-checkout", []string{"smoke"})
	traceID := rootSpan.SpanContext().TraceID()

	_, toolSpan := c.StartToolSpan(caseCtx, "add_to_cart")
	time.Sleep(time.Millisecond)
	toolSpan.End()

	_, chatSpan := c.StartChatSpan(caseCtx, "gpt-4o")
	time.Sleep(time.Millisecond)
	chatSpan.End()

	rootSpan.End()

	summary := c.Summary(traceID)
	assert.Equal(t, 3, summary.SpanCount)
	assert.Equal(t, 1, summary.ToolCallCount)
	assert.Equal(t, 1, summary.ChatCallCount)
	assert.Greater(t, summary.ToolMS+summary.ChatMS, int64(0))

	c.Forget(traceID)
	assert.Equal(t, 0, c.Summary(traceID).SpanCount)
}
