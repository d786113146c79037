// Package comparator joins two completed runs of the same suite by case
// name and scorer, classifying each pair's score delta against a threshold
// as a regression, improvement, or unchanged — implementing spec.md §4.7.
package comparator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/models"
	"github.com/neon-eval/evalengine/pkg/store"
)

// Comparator compares pairs of completed runs.
type Comparator struct {
	Store store.Store
}

// New builds a Comparator.
func New(st store.Store) *Comparator {
	return &Comparator{Store: st}
}

// Compare loads the baseline and candidate runs, joins their results by
// case_name (the stable cross-run key per spec.md §5 — case_id may differ
// if the suite was rewritten between runs) and, within each joined case, by
// scorer name. Scorers present on only one side of a pair are ignored.
func (c *Comparator) Compare(ctx context.Context, baselineID, candidateID uuid.UUID, threshold float64) (*models.CompareResult, error) {
	baselineRun, baselineResults, err := c.loadRun(ctx, baselineID)
	if err != nil {
		return nil, fmt.Errorf("load baseline run: %w", err)
	}
	candidateRun, candidateResults, err := c.loadRun(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load candidate run: %w", err)
	}

	caseNames, err := c.caseNamesByResult(ctx, baselineRun, baselineResults, candidateRun, candidateResults)
	if err != nil {
		return nil, err
	}

	var regressions, improvements []models.RegressionItem
	unchanged := 0

	baselineByCase := indexByCaseName(baselineResults, caseNames.baseline)
	candidateByCase := indexByCaseName(candidateResults, caseNames.candidate)

	for caseName, baselineResult := range baselineByCase {
		candidateResult, ok := candidateByCase[caseName]
		if !ok {
			continue
		}
		baselineScores := scoresByScorer(baselineResult)
		candidateScores := scoresByScorer(candidateResult)

		for scorerName, baselineScore := range baselineScores {
			candidateScore, ok := candidateScores[scorerName]
			if !ok {
				continue
			}
			delta := round4(candidateScore - baselineScore)
			item := models.RegressionItem{
				CaseName:       caseName,
				ScorerName:     scorerName,
				BaselineScore:  baselineScore,
				CandidateScore: candidateScore,
				Delta:          delta,
			}
			switch {
			case delta < -threshold:
				regressions = append(regressions, item)
			case delta > threshold:
				improvements = append(improvements, item)
			default:
				unchanged++
			}
		}
	}

	sort.Slice(regressions, func(i, j int) bool { return regressions[i].Delta < regressions[j].Delta })
	sort.Slice(improvements, func(i, j int) bool { return improvements[i].Delta > improvements[j].Delta })

	baselineSummary := summarize(baselineResults)
	candidateSummary := summarize(candidateResults)
	overallDelta := round4(candidateSummary.AverageScore - baselineSummary.AverageScore)

	return &models.CompareResult{
		Baseline:     models.RunReference{RunID: baselineID},
		Candidate:    models.RunReference{RunID: candidateID},
		Regressions:  regressions,
		Improvements: improvements,
		Unchanged:    unchanged,
		OverallDelta: overallDelta,
		Passed:       len(regressions) == 0,
	}, nil
}

func (c *Comparator) loadRun(ctx context.Context, runID uuid.UUID) (*models.Run, []*models.Result, error) {
	run, err := c.Store.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	results, err := c.Store.ListResults(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return run, results, nil
}

// caseNameLookups resolves case_id → case_name for both sides of a
// comparison, since models.Result only carries case_id.
type caseNameLookups struct {
	baseline  map[uuid.UUID]string
	candidate map[uuid.UUID]string
}

func (c *Comparator) caseNamesByResult(ctx context.Context, baselineRun *models.Run, baselineResults []*models.Result, candidateRun *models.Run, candidateResults []*models.Result) (caseNameLookups, error) {
	baselineNames, err := c.caseNameIndex(ctx, baselineRun, baselineResults)
	if err != nil {
		return caseNameLookups{}, err
	}
	candidateNames, err := c.caseNameIndex(ctx, candidateRun, candidateResults)
	if err != nil {
		return caseNameLookups{}, err
	}
	return caseNameLookups{baseline: baselineNames, candidate: candidateNames}, nil
}

func (c *Comparator) caseNameIndex(ctx context.Context, run *models.Run, results []*models.Result) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(results))
	suite, err := c.Store.GetSuite(ctx, run.SuiteID)
	if err != nil {
		return nil, err
	}
	cases, err := c.Store.ListCases(ctx, suite.ID)
	if err != nil {
		return nil, err
	}
	for _, cs := range cases {
		names[cs.ID] = cs.Name
	}
	return names, nil
}

func indexByCaseName(results []*models.Result, names map[uuid.UUID]string) map[string]*models.Result {
	out := make(map[string]*models.Result, len(results))
	for _, r := range results {
		if name, ok := names[r.CaseID]; ok {
			out[name] = r
		}
	}
	return out
}

func scoresByScorer(r *models.Result) map[string]float64 {
	out := make(map[string]float64, len(r.ScoreDetails))
	for _, d := range r.ScoreDetails {
		out[d.Scorer] = d.Score
	}
	return out
}

func summarize(results []*models.Result) models.RunSummary {
	s := models.RunSummary{TotalCases: len(results)}
	var total float64
	for _, r := range results {
		total += r.Score
		switch r.Status {
		case models.ResultStatusPassed:
			s.Passed++
		case models.ResultStatusFailed:
			s.Failed++
		case models.ResultStatusError:
			s.Errored++
		}
	}
	if len(results) > 0 {
		s.AverageScore = total / float64(len(results))
	}
	return s
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
