package scorer

import (
	"context"
	"fmt"

	"github.com/neon-eval/evalengine/pkg/models"
)

// ToolSelectionScorer checks whether the agent called the expected tools
// (set match) and, when an expected order is given, whether it called them
// in that order (sequence match via longest-common-subsequence).
//
// Ported from original_source agent-eval/api/src/scorers/tool_selection.py.
type ToolSelectionScorer struct{}

func NewToolSelectionScorer() *ToolSelectionScorer { return &ToolSelectionScorer{} }

func (s *ToolSelectionScorer) Name() string { return "tool_selection" }

func (s *ToolSelectionScorer) Score(_ context.Context, in CaseInput) (models.ScoreDetail, error) {
	setScore := setMatchScore(in.Case.ExpectedTools, in.Output.ToolsCalled)

	result := models.ScoreDetail{Scorer: s.Name()}

	expectedSeq := in.Case.ExpectedToolSequence
	if len(expectedSeq) == 0 {
		// No ordering requirement: set match is the whole score.
		result.Score = clamp01(setScore)
		result.Reason = toolSelectionReason(result.Score)
		result.Evidence = []string{
			fmt.Sprintf("expected=%v actual=%v", in.Case.ExpectedTools, in.Output.ToolsCalled),
			fmt.Sprintf("set_match=%.2f", setScore),
		}
		return result, nil
	}

	seqScore := lcsRatio(expectedSeq, in.Output.ToolsCalled)
	avg := (setScore + seqScore) / 2
	result.Score = clamp01(avg)
	result.Reason = toolSelectionReason(result.Score)
	result.Evidence = []string{
		fmt.Sprintf("expected_sequence=%v actual=%v", expectedSeq, in.Output.ToolsCalled),
		fmt.Sprintf("set_match=%.2f sequence_match=%.2f", setScore, seqScore),
	}
	return result, nil
}

// setMatchScore implements spec.md §4.3's three-way branch on
// expected_tools: nil means "no expectation declared" (neutral 0.8);
// an explicit empty list means "no tools expected" (1.0 iff none called,
// else 0.0); a non-empty list is scored by Jaccard similarity.
func setMatchScore(expected, actual []string) float64 {
	switch {
	case expected == nil:
		return 0.8
	case len(expected) == 0:
		if len(actual) == 0 {
			return 1
		}
		return 0
	default:
		return jaccard(toSet(expected), toSet(actual))
	}
}

func toolSelectionReason(score float64) string {
	switch {
	case score >= 0.9:
		return "tool usage matches expectations closely"
	case score >= 0.7:
		return "tool usage mostly matches expectations"
	case score >= 0.5:
		return "tool usage partially matches expectations"
	default:
		return "tool usage diverges significantly from expectations"
	}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

// jaccard computes |intersection| / |union| for a non-empty expected set.
// The nil/empty/non-empty branching lives in setMatchScore; by the time
// jaccard runs, expected is known to be non-empty.
func jaccard(expected, actual map[string]bool) float64 {
	intersection := 0
	union := make(map[string]bool, len(expected)+len(actual))
	for k := range expected {
		union[k] = true
		if actual[k] {
			intersection++
		}
	}
	for k := range actual {
		union[k] = true
	}
	if len(union) == 0 {
		return 1
	}
	return float64(intersection) / float64(len(union))
}

// lcsRatio scores sequence adherence as the longest-common-subsequence
// length over the expected sequence length.
func lcsRatio(expected, actual []string) float64 {
	if len(expected) == 0 {
		return 1
	}
	n := lcsLength(expected, actual)
	return float64(n) / float64(len(expected))
}

func lcsLength(a, b []string) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] > dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp[len(a)][len(b)]
}
