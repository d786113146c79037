// Package judge defines the LLM-judge collaborator contract used by the
// content and reasoning scorers, and its HTTP-backed implementation.
package judge

import "context"

// Result is a judge's verdict on a rendered rubric prompt. Score is the
// judge's raw 0-10 rating (spec.md §4.3's LLM judge contract); scorers
// normalize it to [0,1] themselves. SubScores, Strengths and Weaknesses are
// optional: a judge prompted with a weighted rubric (the reasoning scorer)
// populates them; a judge that only returns {score, reason} leaves them nil.
type Result struct {
	Score      float64            `json:"score"`
	Reason     string             `json:"reason"`
	SubScores  map[string]float64 `json:"sub_scores,omitempty"`
	Strengths  []string           `json:"strengths,omitempty"`
	Weaknesses []string           `json:"weaknesses,omitempty"`
}

// sentinel is returned, with a nil error, whenever the judge client itself
// fails (transport, status, parse) — the scorer decides whether to fall
// back, per spec.md §4.3's "the client ... on any failure return
// {score: 5, reason: "<error>"}" contract.
func sentinel(reason string) (Result, error) {
	return Result{Score: 5, Reason: reason}, nil
}

// Judge is a stateless collaborator reached over the network: it takes a
// rendered prompt and returns a score/reason pair. Scorers treat it purely
// through this interface, per spec.md §4.3.
type Judge interface {
	Evaluate(ctx context.Context, prompt string) (Result, error)
}
