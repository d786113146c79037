// Package scorer implements the case-scoring algorithms: tool selection,
// content/grounding, and reasoning, each producing a models.ScoreDetail.
package scorer

import (
	"context"

	"github.com/neon-eval/evalengine/pkg/agent"
	"github.com/neon-eval/evalengine/pkg/models"
)

// CaseInput is everything a Scorer needs to judge one case's outcome: the
// case's expectations plus the agent's actual output.
type CaseInput struct {
	Case   *models.Case
	Output agent.AgentOutput
}

// Scorer evaluates one case outcome and returns a ScoreDetail. Score is
// always normalized to [0, 1].
type Scorer interface {
	Name() string
	Score(ctx context.Context, in CaseInput) (models.ScoreDetail, error)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Registry is a name → Scorer map built once at startup, per spec.md §9's
// instruction to look scorers up by explicit registration rather than
// reflective class name. Grounded on the teacher's pkg/masking
// registerMasker/codeMaskers map pattern.
type Registry struct {
	scorers map[string]Scorer
}

// NewRegistry builds a Registry from a list of scorers, indexed by Name().
func NewRegistry(scorers ...Scorer) *Registry {
	m := make(map[string]Scorer, len(scorers))
	for _, s := range scorers {
		m[s.Name()] = s
	}
	return &Registry{scorers: m}
}

// Get looks up a scorer by name.
func (r *Registry) Get(name string) (Scorer, bool) {
	s, ok := r.scorers[name]
	return s, ok
}

// Names returns every registered scorer name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scorers))
	for n := range r.scorers {
		names = append(names, n)
	}
	return names
}

// Known returns a name-membership set suitable for pkg/suiteconfig.Options.KnownScorers.
func (r *Registry) Known() map[string]bool {
	m := make(map[string]bool, len(r.scorers))
	for n := range r.scorers {
		m[n] = true
	}
	return m
}
