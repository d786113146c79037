package suiteconfig

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// validate runs go-playground/validator struct-tag validation plus the
// cross-field checks struct tags cannot express: scorer names must be
// known to the caller's registry, and any expected_output_pattern must be
// a compilable regular expression.
func validate(f *SuiteFile, knownScorers map[string]bool) []error {
	var errs []error

	if err := structValidator.Struct(f); err != nil {
		errs = append(errs, flattenValidatorErrors(err)...)
	}

	checkScorers := func(component, id string, names []string) {
		for _, name := range names {
			if knownScorers != nil && !knownScorers[name] {
				errs = append(errs, NewValidationError(component, id, "scorers", fmt.Errorf("%w: %q", ErrUnknownScorer, name)))
			}
		}
	}
	checkScorers("suite", f.Name, f.DefaultScorers)

	seen := make(map[string]bool, len(f.Cases))
	for _, c := range f.Cases {
		if seen[c.Name] {
			errs = append(errs, NewValidationError("case", c.Name, "name", fmt.Errorf("duplicate case name within suite")))
		}
		seen[c.Name] = true

		checkScorers("case", c.Name, c.Scorers)

		if c.ExpectedOutputPattern != "" {
			if _, err := regexp.Compile(c.ExpectedOutputPattern); err != nil {
				errs = append(errs, NewValidationError("case", c.Name, "expected_output_pattern", fmt.Errorf("%w: %v", ErrInvalidRegex, err)))
			}
		}
	}

	return errs
}

func flattenValidatorErrors(err error) []error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{err}
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, NewValidationError("suite", fe.StructNamespace(), fe.Field(),
			fmt.Errorf("%w: failed on %q", ErrValidationFailed, fe.Tag())))
	}
	return out
}
