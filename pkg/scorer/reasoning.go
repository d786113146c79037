package scorer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/scorer/judge"
)

// ReasoningScorer judges whether the agent's response demonstrates sound
// reasoning against a weighted rubric. Falls back to a length/tool-use
// heuristic when the judge is unavailable. Ported from original_source
// agent-eval/api/src/scorers/reasoning.py.
type ReasoningScorer struct {
	Judge judge.Judge
}

func NewReasoningScorer(j judge.Judge) *ReasoningScorer {
	return &ReasoningScorer{Judge: j}
}

func (s *ReasoningScorer) Name() string { return "reasoning" }

// rubricCriterion is one weighted dimension of the reasoning rubric.
type rubricCriterion struct {
	Weight    float64
	MaxPoints float64
}

// defaultRubric is applied when a case does not set scorer_config.rubric.
var defaultRubric = map[string]rubricCriterion{
	"logical_coherence":    {Weight: 0.30, MaxPoints: 3},
	"information_usage":    {Weight: 0.30, MaxPoints: 3},
	"problem_decomposition": {Weight: 0.20, MaxPoints: 2},
	"completeness":          {Weight: 0.20, MaxPoints: 2},
}

// resolveRubric reads case.scorer_config.rubric (criterion -> {weight,
// max_points}) and falls back to defaultRubric for any criterion it does
// not override or when the config is absent/malformed.
func resolveRubric(c *models.Case) map[string]rubricCriterion {
	rubric := make(map[string]rubricCriterion, len(defaultRubric))
	for k, v := range defaultRubric {
		rubric[k] = v
	}
	raw, ok := c.ScorerConfig["rubric"]
	if !ok {
		return rubric
	}
	entries, ok := raw.(map[string]any)
	if !ok {
		return rubric
	}
	for name, v := range entries {
		spec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		crit := rubric[name]
		if w, ok := toFloat(spec["weight"]); ok {
			crit.Weight = w
		}
		if mp, ok := toFloat(spec["max_points"]); ok {
			crit.MaxPoints = mp
		}
		rubric[name] = crit
	}
	return rubric
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func rubricNames(rubric map[string]rubricCriterion) []string {
	names := make([]string, 0, len(rubric))
	for n := range rubric {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const reasoningPromptTemplate = `Evaluate the following agent response against this weighted rubric:
%s

Request:
%s

Response:
%s

Rate overall reasoning quality on a scale from 0 (incoherent) to 10
(excellent). Respond as JSON:
{"score": <int 0-10>, "reason": "<text>", "sub_scores": {<criterion>: <points>, ...},
 "strengths": ["<up to 3>"], "weaknesses": ["<up to 3>"]}`

func (s *ReasoningScorer) Score(ctx context.Context, in CaseInput) (models.ScoreDetail, error) {
	rubric := resolveRubric(in.Case)

	if s.Judge == nil {
		score := heuristicScore(in.Output)
		return models.ScoreDetail{
			Scorer: s.Name(),
			Score:  score,
			Reason: "heuristic score (no judge configured)",
		}, nil
	}

	prompt := fmt.Sprintf(reasoningPromptTemplate, renderRubric(rubric), in.Case.Input, in.Output.Output)
	result, err := s.Judge.Evaluate(ctx, prompt)
	if err != nil {
		score := heuristicScore(in.Output)
		return models.ScoreDetail{
			Scorer: s.Name(),
			Score:  score,
			Reason: fmt.Sprintf("llm judge unavailable (%v); used heuristic fallback", err),
		}, nil
	}

	return models.ScoreDetail{
		Scorer:   s.Name(),
		Score:    clamp01(result.Score / 10.0),
		Reason:   result.Reason,
		Evidence: reasoningEvidence(rubric, result),
	}, nil
}

// renderRubric describes each weighted criterion for the judge prompt.
func renderRubric(rubric map[string]rubricCriterion) string {
	var b strings.Builder
	for _, name := range rubricNames(rubric) {
		c := rubric[name]
		fmt.Fprintf(&b, "- %s: weight %.2f, max %.0f points\n", name, c.Weight, c.MaxPoints)
	}
	return b.String()
}

// reasoningEvidence surfaces up to three strengths, three weaknesses, and
// every sub-score the judge reported, per spec.md §4.3.
func reasoningEvidence(rubric map[string]rubricCriterion, result judge.Result) []string {
	evidence := make([]string, 0, 8)
	for _, name := range rubricNames(rubric) {
		if v, ok := result.SubScores[name]; ok {
			evidence = append(evidence, fmt.Sprintf("%s: %.1f/%.0f", name, v, rubric[name].MaxPoints))
		}
	}
	for i, strength := range result.Strengths {
		if i >= 3 {
			break
		}
		evidence = append(evidence, "strength: "+strength)
	}
	for i, weakness := range result.Weaknesses {
		if i >= 3 {
			break
		}
		evidence = append(evidence, "weakness: "+weakness)
	}
	return evidence
}

// heuristicScore approximates reasoning quality from response shape alone
// when no judge is available: base 0.5, penalized for very short
// responses, rewarded for longer ones and for having called any tools.
func heuristicScore(out agent.AgentOutput) float64 {
	score := 0.5
	switch n := len(out.Output); {
	case n < 50:
		score -= 0.2
	case n > 200:
		score += 0.1
	}
	if len(out.ToolsCalled) > 0 {
		score += 0.1
	}
	return clamp01(score)
}
