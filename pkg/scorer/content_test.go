package scorer

import (
	"context"
	"errors"
	"testing"

	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/scorer/judge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentScorerNoExpectationsDefaultsNeutral(t *testing.T) {
	s := NewContentScorer(nil)
	in := CaseInput{Case: &models.Case{}, Output: agent.AgentOutput{Output: "anything"}}
	detail, err := s.Score(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0.8, detail.Score)
}

func TestContentScorerBlendsDeterministicAndJudge(t *testing.T) {
	j := &judge.StubJudge{Result: judge.Result{Score: 10, Reason: "fully grounded"}}
	s := NewContentScorer(j)
	in := CaseInput{
		Case:   &models.Case{Input: "what is the refund policy", ExpectedContent: []string{"30 days"}},
		Output: agent.AgentOutput{Output: "you can request a refund within 30 days"},
	}
	detail, err := s.Score(context.Background(), in)
	require.NoError(t, err)
	// detMatch=1.0, judge=1.0 -> 1.0*0.3 + 1.0*0.7 = 1.0
	assert.InDelta(t, 1.0, detail.Score, 0.001)
	require.Len(t, j.Prompts, 1)
}

func TestContentScorerFallsBackToDeterministicOnJudgeError(t *testing.T) {
	j := &judge.StubJudge{Err: errors.New("judge endpoint unreachable")}
	s := NewContentScorer(j)
	in := CaseInput{
		Case:   &models.Case{ExpectedContent: []string{"30 days"}},
		Output: agent.AgentOutput{Output: "refund within 30 days"},
	}
	detail, err := s.Score(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1.0, detail.Score)
	assert.Contains(t, detail.Reason, "judge unavailable")
}

func TestContentScorerPartialMatch(t *testing.T) {
	s := NewContentScorer(nil)
	in := CaseInput{
		Case:   &models.Case{ExpectedContent: []string{"refund", "30 days"}},
		Output: agent.AgentOutput{Output: "you are eligible for a refund"},
	}
	detail, err := s.Score(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, detail.Score, 0.001)
}
