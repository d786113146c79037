package judge

import "context"

// StubJudge is a fake Judge for tests, grounded on the teacher's
// pkg/queue/executor_stub.go pattern of a narrow fake collaborator driven
// by a pre-programmed response (and an optional error) rather than a mock
// framework.
type StubJudge struct {
	Result Result
	Err    error

	// Prompts records every prompt passed to Evaluate, for assertions.
	Prompts []string
}

func (s *StubJudge) Evaluate(_ context.Context, prompt string) (Result, error) {
	s.Prompts = append(s.Prompts, prompt)
	if s.Err != nil {
		return Result{}, s.Err
	}
	return s.Result, nil
}
