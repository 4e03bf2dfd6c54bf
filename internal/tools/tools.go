package tools

import "context"

// AttachedProcessKey is the parameter key under which the orchestrator injects
// the attached process handle for tools that ask for it.
const AttachedProcessKey = "_attachedProcess"

// Tool represents a capability that can be called by the assistant.
type Tool interface {
	// Name is the name of the tool, as it would be called by the model.
	Name() string
	// Description is a description of the tool's purpose and parameters.
	// It is rendered verbatim into the system prompt.
	Description() string
	// Execute runs the tool with the given parameters and returns the output.
	Execute(ctx context.Context, params Params) (string, error)
}

// ProcessAware is implemented by tools that need the attached process handle.
type ProcessAware interface {
	NeedsAttachedProcess() bool
}

// NeedsAttachedProcess reports whether t wants the attached process injected.
func NeedsAttachedProcess(t Tool) bool {
	pa, ok := t.(ProcessAware)
	return ok && pa.NeedsAttachedProcess()
}

// Info is the catalog entry of a registered tool.
type Info struct {
	Name        string
	Description string
}
