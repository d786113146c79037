package scorer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/scorer/judge"
)

// ContentScorer (spec.md's "grounding" scorer) blends a deterministic
// substring/regex match against expected content with an LLM judge's
// assessment of whether the response is actually grounded in the case's
// input. Ported from original_source api/src/scorers/grounding.py.
type ContentScorer struct {
	Judge judge.Judge
}

func NewContentScorer(j judge.Judge) *ContentScorer {
	return &ContentScorer{Judge: j}
}

func (s *ContentScorer) Name() string { return "content" }

const groundingPromptTemplate = `You are evaluating whether an AI agent's response is grounded in the
provided input and free of fabricated claims.

Input:
%s

Response:
%s

Rate how well the response is grounded in the input on a scale from 0
(entirely fabricated) to 10 (fully grounded), and explain briefly.
Respond as JSON: {"score": <int 0-10>, "reason": "<text>"}`

func (s *ContentScorer) Score(ctx context.Context, in CaseInput) (models.ScoreDetail, error) {
	detMatch, evidence := checkExpectedContent(in.Case, in.Output.Output)

	if s.Judge == nil {
		return models.ScoreDetail{
			Scorer:   s.Name(),
			Score:    clamp01(detMatch),
			Reason:   "deterministic content match (no judge configured)",
			Evidence: evidence,
		}, nil
	}

	prompt := fmt.Sprintf(groundingPromptTemplate, in.Case.Input, in.Output.Output)
	result, err := s.Judge.Evaluate(ctx, prompt)
	if err != nil {
		// Fall back to the deterministic match alone on judge failure,
		// matching original_source's except-clause behavior exactly.
		return models.ScoreDetail{
			Scorer:   s.Name(),
			Score:    clamp01(detMatch),
			Reason:   fmt.Sprintf("llm judge unavailable (%v); used deterministic match only", err),
			Evidence: evidence,
		}, nil
	}

	sLLM := clamp01(result.Score / 10.0)
	blended := detMatch*0.3 + sLLM*0.7
	return models.ScoreDetail{
		Scorer:   s.Name(),
		Score:    clamp01(blended),
		Reason:   result.Reason,
		Evidence: evidence,
	}, nil
}

// checkExpectedContent implements spec.md §4.3's content/grounding
// deterministic component: expected_output_contains is matched as
// case-insensitive substring containment, expected_output_pattern as a
// single case-insensitive regex search. S_det = matches/total over the two
// independently-optional checks; 0.8 (neutral) when neither is set. An
// invalid pattern counts as a missed expectation.
func checkExpectedContent(c *models.Case, output string) (float64, []string) {
	total := len(c.ExpectedContent)
	if c.ExpectedOutputPattern != "" {
		total++
	}
	if total == 0 {
		return 0.8, nil
	}

	lower := strings.ToLower(output)
	matched := 0
	evidence := make([]string, 0, total)
	for _, expected := range c.ExpectedContent {
		if strings.Contains(lower, strings.ToLower(expected)) {
			matched++
			evidence = append(evidence, fmt.Sprintf("matched substring %q", expected))
		} else {
			evidence = append(evidence, fmt.Sprintf("missing substring %q", expected))
		}
	}

	if c.ExpectedOutputPattern != "" {
		re, err := regexp.Compile("(?i)" + c.ExpectedOutputPattern)
		switch {
		case err != nil:
			evidence = append(evidence, fmt.Sprintf("invalid pattern %q: %v", c.ExpectedOutputPattern, err))
		case re.MatchString(output):
			matched++
			evidence = append(evidence, fmt.Sprintf("matched pattern %q", c.ExpectedOutputPattern))
		default:
			evidence = append(evidence, fmt.Sprintf("missing pattern %q", c.ExpectedOutputPattern))
		}
	}

	return float64(matched) / float64(total), evidence
}
