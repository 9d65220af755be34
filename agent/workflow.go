package agent

import (
	"context"
	"strings"
	"time"

	"agentkit/config"
	"agentkit/llm"
	"agentkit/workflow"

	"github.com/rs/zerolog"
)

const workflowSystemPrompt = `You are an intelligent workflow executor. Your job is to:
1. Execute tasks step by step
2. Pass context between steps
3. Make decisions based on conditions
4. Handle errors gracefully
5. Aggregate and format outputs

Follow instructions precisely. Use context from previous steps.
Format outputs clearly and concisely.`

// WorkflowAgent executes multi-step workflows defined in YAML.
type WorkflowAgent struct {
	*Base
	engine *workflow.Engine
}

// NewWorkflowAgent creates a workflow agent on top of completer.
func NewWorkflowAgent(cfg *config.Config, completer llm.Completer, logger zerolog.Logger) *WorkflowAgent {
	base := NewBase("workflow", cfg, completer, workflowSystemPrompt, logger)

	engine := workflow.NewEngine(func(ctx context.Context, prompt, system string) (string, error) {
		if system != "" {
			return base.Ask(ctx, prompt, WithSystem(system))
		}
		return base.Ask(ctx, prompt)
	}, logger)

	return &WorkflowAgent{Base: base, engine: engine}
}

// Run executes a workflow definition with the given variables and saves
// the run report.
func (a *WorkflowAgent) Run(ctx context.Context, defn *workflow.Definition, variables map[string]string) (*workflow.Result, error) {
	result, err := a.engine.Run(ctx, defn, variables)
	if err != nil {
		return nil, err
	}

	name := strings.ReplaceAll(result.Name, " ", "_")
	if name == "" {
		name = "workflow"
	}
	filename := "workflow_" + name + "_" + time.Now().Format("20060102_150405") + ".md"
	if _, err := a.SaveOutput(result.Report, filename); err != nil {
		return nil, err
	}

	return result, nil
}
