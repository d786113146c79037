package suiteconfig

// SuiteFile is the top-level shape of a suite definition YAML file.
type SuiteFile struct {
	Name                 string           `yaml:"name" validate:"required"`
	Description          string           `yaml:"description,omitempty"`
	AgentID              string           `yaml:"agent_id" validate:"required"`
	DefaultScorers       []string         `yaml:"default_scorers,omitempty"`
	DefaultMinScore      float64          `yaml:"default_min_score,omitempty" validate:"omitempty,min=0,max=1"`
	DefaultTimeoutSeconds int             `yaml:"default_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	Parallel             *bool            `yaml:"parallel,omitempty"`
	StopOnFailure        *bool            `yaml:"stop_on_failure,omitempty"`
	Cases                []CaseSpec       `yaml:"cases" validate:"required,min=1,dive"`
}

// CaseSpec is a single case entry within a SuiteFile. Fields left empty
// inherit the suite's defaults during Load.
type CaseSpec struct {
	Name                    string         `yaml:"name" validate:"required"`
	Description             string         `yaml:"description,omitempty"`
	Input                   CaseInput      `yaml:"input" validate:"required"`
	ExpectedTools           []string       `yaml:"expected_tools,omitempty"`
	ExpectedToolSequence    []string       `yaml:"expected_tool_sequence,omitempty"`
	ExpectedOutputContains  []string       `yaml:"expected_output_contains,omitempty"`
	ExpectedOutputPattern   string         `yaml:"expected_output_pattern,omitempty"`
	Scorers                 []string       `yaml:"scorers,omitempty"`
	ScorerConfig            map[string]any `yaml:"scorer_config,omitempty"`
	MinScore                *float64       `yaml:"min_score,omitempty" validate:"omitempty,min=0,max=1"`
	TimeoutSeconds          *int           `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	Tags                    []string       `yaml:"tags,omitempty"`
}

// CaseInput is the agent-facing payload for a case.
type CaseInput struct {
	Query   string         `yaml:"query" validate:"required"`
	Context map[string]any `yaml:"context,omitempty"`
}

// suiteDefaults carries the built-in values applied before user overrides,
// mirroring the teacher's "built-in, then user overrides" merge shape.
var suiteDefaults = SuiteFile{
	DefaultMinScore:       0.7,
	DefaultTimeoutSeconds: 300,
}

func boolPtr(b bool) *bool { return &b }

var defaultParallel = boolPtr(true)
var defaultStopOnFailure = boolPtr(false)
