// Package agent defines the contract an agent under test must satisfy and
// the registry-based mechanism by which a locator string ("module:attribute")
// is resolved to a runnable Agent.
package agent

import "context"

// AgentOutput is what an agent returns for a single case invocation.
type AgentOutput struct {
	Output      string         `json:"output"`
	ToolsCalled []string       `json:"tools_called,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Agent is the contract every agent under test implements.
type Agent interface {
	Run(ctx context.Context, query string, caseContext map[string]any) (AgentOutput, error)
}

// Func adapts a plain function to the Agent interface. The function returns
// an AgentOutput directly; its return value is passed through unchanged.
type Func func(ctx context.Context, query string, caseContext map[string]any) (AgentOutput, error)

func (f Func) Run(ctx context.Context, query string, caseContext map[string]any) (AgentOutput, error) {
	return f(ctx, query, caseContext)
}
