package suiteconfig

import (
	"dario.cat/mergo"
)

// applyDefaults fills suite-level defaults not set by the user using
// mergo, mirroring the teacher's "built-in, then user overrides" merge
// shape but driven by a struct-merge library instead of hand-written
// per-field map merges.
func applyDefaults(f *SuiteFile) error {
	if err := mergo.Merge(f, suiteDefaults); err != nil {
		return err
	}
	if f.Parallel == nil {
		f.Parallel = defaultParallel
	}
	if f.StopOnFailure == nil {
		f.StopOnFailure = defaultStopOnFailure
	}
	return nil
}

// resolvedCase is a CaseSpec with every suite-level default already
// substituted in, ready for conversion into a models.Case.
type resolvedCase struct {
	CaseSpec
	MinScore       float64
	TimeoutSeconds int
	Scorers        []string
}

// resolveCase merges a CaseSpec's optional fields against the suite's
// defaults. User-set fields on the case always win.
func resolveCase(c CaseSpec, suite *SuiteFile) resolvedCase {
	r := resolvedCase{CaseSpec: c}

	r.MinScore = suite.DefaultMinScore
	if c.MinScore != nil {
		r.MinScore = *c.MinScore
	}

	r.TimeoutSeconds = suite.DefaultTimeoutSeconds
	if c.TimeoutSeconds != nil {
		r.TimeoutSeconds = *c.TimeoutSeconds
	}

	r.Scorers = suite.DefaultScorers
	if len(c.Scorers) > 0 {
		r.Scorers = c.Scorers
	}

	return r
}
