// Package suiteconfig loads suite definition YAML files into the domain
// types used by the rest of the engine: expand environment variables,
// parse YAML, apply suite-level defaults, validate, and convert.
package suiteconfig

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neon-eval/evalengine/pkg/models"
	"gopkg.in/yaml.v3"
)

// Options configures a Load call.
type Options struct {
	// KnownScorers is the set of scorer names registered with pkg/scorer.
	// A suite or case referencing a name outside this set fails validation.
	// Nil disables the check (used by tests that don't care about scorer
	// wiring).
	KnownScorers map[string]bool
}

// Loaded is the result of successfully loading one suite file: the
// project-scoped Suite plus its resolved Cases, ready for Store.Create*.
type Loaded struct {
	Suite *models.Suite
	Cases []*models.Case
}

// Load parses, defaults and validates a suite YAML document.
//
// Pipeline: expand env vars → parse YAML → apply defaults → validate →
// convert. Mirrors the teacher's configLoader.load pipeline shape.
func Load(data []byte, projectID uuid.UUID, opts Options) (*Loaded, error) {
	expanded := ExpandEnv(data)

	var file SuiteFile
	if err := yaml.Unmarshal(expanded, &file); err != nil {
		return nil, NewLoadError("suite.yaml", fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if err := applyDefaults(&file); err != nil {
		return nil, NewLoadError("suite.yaml", err)
	}

	if errs := validate(&file, opts.KnownScorers); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, joinErrors(errs))
	}

	return convert(&file, projectID), nil
}

func convert(file *SuiteFile, projectID uuid.UUID) *Loaded {
	weights := make(map[string]float64, len(file.DefaultScorers))
	for _, s := range file.DefaultScorers {
		weights[s] = 1
	}

	suite := &models.Suite{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Name:           file.Name,
		Description:    file.Description,
		AgentLocator:   file.AgentID,
		ScorerWeights:  weights,
		PassThreshold:  file.DefaultMinScore,
		DefaultTimeout: time.Duration(file.DefaultTimeoutSeconds) * time.Second,
		Parallel:       file.Parallel != nil && *file.Parallel,
		StopOnFailure:  file.StopOnFailure != nil && *file.StopOnFailure,
	}

	cases := make([]*models.Case, 0, len(file.Cases))
	for _, cs := range file.Cases {
		r := resolveCase(cs, file)
		cases = append(cases, &models.Case{
			ID:                    uuid.New(),
			SuiteID:               suite.ID,
			Name:                  r.Name,
			Input:                 r.Input.Query,
			Context:               r.Input.Context,
			ExpectedTools:         r.ExpectedTools,
			ExpectedToolSequence:  r.ExpectedToolSequence,
			ExpectedContent:       r.ExpectedOutputContains,
			ExpectedOutputPattern: r.ExpectedOutputPattern,
			RubricNotes:           r.Description,
			Scorers:               r.Scorers,
			ScorerConfig:          r.ScorerConfig,
			MinScore:              r.MinScore,
			Timeout:               time.Duration(r.TimeoutSeconds) * time.Second,
			Tags:                  r.Tags,
		})
	}

	return &Loaded{Suite: suite, Cases: cases}
}

// joinErrors renders a slice of validation errors as one error, joined
// with "; ", so CLI/API callers surface every violation at once rather
// than one-at-a-time.
func joinErrors(errs []error) error {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.Error()
	}
	return fmt.Errorf("%s", msg)
}
