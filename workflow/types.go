// Package workflow implements the declarative step-execution engine: a
// workflow definition is an ordered list of LLM-backed steps driven
// linearly against a mutable run context, with conditional branching and
// per-step failure policy.
package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StepType identifies how a step is dispatched.
type StepType string

const (
	StepPrompt    StepType = "prompt"
	StepTransform StepType = "transform"
	StepAggregate StepType = "aggregate"
)

// OnError controls whether a run continues past a failed step.
type OnError string

// OnErrorStop halts the run; any other value (including absent) continues.
const OnErrorStop OnError = "stop"

// Definition is a parsed workflow. It is parsed once at run start and
// treated as read-only thereafter.
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one unit of work in a workflow.
type Step struct {
	Name      string   `yaml:"name"`
	Type      StepType `yaml:"type"`
	Condition string   `yaml:"condition,omitempty"`
	OnError   OnError  `yaml:"on_error,omitempty"`

	// prompt steps
	Prompt string `yaml:"prompt,omitempty"`
	System string `yaml:"system,omitempty"` // optional per-step system prompt override

	// transform steps
	Transform string `yaml:"transform,omitempty"`
	Input     string `yaml:"input,omitempty"` // named prior step; empty means last output

	// aggregate steps
	Inputs []string `yaml:"inputs,omitempty"` // named prior steps; empty means all outputs
	Format string   `yaml:"format,omitempty"`
}

// Status is a step's terminal result status.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// StepResult records the outcome of one executed step.
// Skipped steps record no StepResult at all.
type StepResult struct {
	Status Status
	Output string // set on success
	Err    string // set on error
}

// RunContext is the mutable state threaded through one workflow run.
// It is mutated only by the engine, a step name is written at most once,
// and it is discarded when the run completes.
type RunContext struct {
	Variables map[string]string
	Steps     map[string]StepResult
	Outputs   []string

	// executed preserves the order in which step results were recorded;
	// Steps alone cannot, being a map.
	executed []string
}

// NewRunContext creates a run context seeded with the given variables.
func NewRunContext(variables map[string]string) *RunContext {
	if variables == nil {
		variables = make(map[string]string)
	}
	return &RunContext{
		Variables: variables,
		Steps:     make(map[string]StepResult),
	}
}

// record writes a step result, tracking execution order.
func (rc *RunContext) record(name string, result StepResult) {
	rc.Steps[name] = result
	rc.executed = append(rc.executed, name)
}

// ExecutedSteps returns the names of executed steps in execution order.
func (rc *RunContext) ExecutedSteps() []string {
	return rc.executed
}

// Parse parses a workflow definition from YAML. Steps without a name get
// a positional one; steps without a type default to prompt.
func Parse(data []byte) (*Definition, error) {
	var defn Definition
	if err := yaml.Unmarshal(data, &defn); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}
	if len(defn.Steps) == 0 {
		return nil, fmt.Errorf("workflow %q has no steps", defn.Name)
	}

	for i := range defn.Steps {
		if defn.Steps[i].Name == "" {
			defn.Steps[i].Name = fmt.Sprintf("step_%d", i)
		}
		if defn.Steps[i].Type == "" {
			defn.Steps[i].Type = StepPrompt
		}
	}
	return &defn, nil
}

// LoadFile parses a workflow definition from a YAML file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //#nosec 304 -- intentional file read for workflow
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file %q: %w", path, err)
	}
	return Parse(data)
}
