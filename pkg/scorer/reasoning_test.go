package scorer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/scorer/judge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReasoningScorerUsesJudgeWhenAvailable(t *testing.T) {
	j := &judge.StubJudge{Result: judge.Result{Score: 8.5, Reason: "coherent and relevant"}}
	s := NewReasoningScorer(j)
	detail, err := s.Score(context.Background(), CaseInput{
		Case:   &models.Case{Input: "why did the order fail"},
		Output: agent.AgentOutput{Output: "the order failed due to insufficient stock"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.85, detail.Score)
}

func TestReasoningScorerHeuristicFallbackShortResponse(t *testing.T) {
	s := NewReasoningScorer(nil)
	detail, err := s.Score(context.Background(), CaseInput{
		Case:   &models.Case{},
		Output: agent.AgentOutput{Output: "ok"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, detail.Score, 0.001)
}

func TestReasoningScorerHeuristicFallbackLongResponseWithTools(t *testing.T) {
	s := NewReasoningScorer(nil)
	detail, err := s.Score(context.Background(), CaseInput{
		Case:   &models.Case{},
		Output: agent.AgentOutput{Output: strings.Repeat("x", 250), ToolsCalled: []string{"lookup"}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, detail.Score, 0.001)
}

func TestReasoningScorerFallsBackOnJudgeError(t *testing.T) {
	j := &judge.StubJudge{Err: errors.New("timeout")}
	s := NewReasoningScorer(j)
	detail, err := s.Score(context.Background(), CaseInput{
		Case:   &models.Case{},
		Output: agent.AgentOutput{Output: strings.Repeat("x", 250)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, detail.Score, 0.001)
	assert.Contains(t, detail.Reason, "heuristic fallback")
}
