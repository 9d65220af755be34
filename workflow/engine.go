package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// AskFunc sends one prompt through the owning agent's completion path and
// returns the reply text. An empty system string means the agent's own
// system prompt. It is the engine's only side-effecting primitive.
type AskFunc func(ctx context.Context, prompt, system string) (string, error)

// Engine drives a Definition's steps linearly against a RunContext.
// There are no backward jumps and no parallel steps: step N+1 never
// begins before step N reaches a terminal state.
type Engine struct {
	ask    AskFunc
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates a step-execution engine on top of ask.
func NewEngine(ask AskFunc, logger zerolog.Logger) *Engine {
	return &Engine{
		ask:    ask,
		logger: logger.With().Str("component", "workflowEngine").Logger(),
		now:    time.Now,
	}
}

// Result summarizes one workflow run. Skipped steps count as neither
// succeeded nor failed.
type Result struct {
	Name      string
	Succeeded int
	Failed    int
	Report    string
	Context   *RunContext
}

// Run executes the workflow. Step failures are recorded in the run
// context rather than returned; the error return covers only the
// degenerate nil-definition case.
func (e *Engine) Run(ctx context.Context, defn *Definition, variables map[string]string) (*Result, error) {
	if defn == nil {
		return nil, fmt.Errorf("workflow definition is required")
	}

	e.logger.Info().Str("workflow", defn.Name).Int("steps", len(defn.Steps)).Msg("Running workflow")

	rc := NewRunContext(variables)

	for i := range defn.Steps {
		step := &defn.Steps[i]
		e.logger.Info().Str("step", step.Name).Str("type", string(step.Type)).Msg("Executing step")

		run, err := e.evalCondition(ctx, step, rc)
		if err != nil {
			e.logger.Error().Str("step", step.Name).Err(err).Msg("Condition evaluation failed")
			rc.record(step.Name, StepResult{Status: StatusError, Err: err.Error()})
			if step.OnError == OnErrorStop {
				break
			}
			continue
		}
		if !run {
			e.logger.Info().Str("step", step.Name).Msg("Skipping step: condition not met")
			continue
		}

		output, err := e.dispatch(ctx, step, rc)
		if err != nil {
			e.logger.Error().Str("step", step.Name).Err(err).Msg("Step failed")
			rc.record(step.Name, StepResult{Status: StatusError, Err: err.Error()})
			if step.OnError == OnErrorStop {
				e.logger.Warn().Str("step", step.Name).Msg("Halting workflow on step error")
				break
			}
			continue
		}

		rc.record(step.Name, StepResult{Status: StatusSuccess, Output: output})
		rc.Outputs = append(rc.Outputs, output)
	}

	results := lo.Values(rc.Steps)
	succeeded := lo.CountBy(results, func(r StepResult) bool { return r.Status == StatusSuccess })
	failed := lo.CountBy(results, func(r StepResult) bool { return r.Status == StatusError })

	return &Result{
		Name:      defn.Name,
		Succeeded: succeeded,
		Failed:    failed,
		Report:    e.report(defn, rc),
		Context:   rc,
	}, nil
}

// evalCondition asks the model to judge a step's condition. Only a reply
// that trims and lowercases to exactly "true" runs the step; anything
// else skips it. The model is the judge here on purpose; tests stub it.
func (e *Engine) evalCondition(ctx context.Context, step *Step, rc *RunContext) (bool, error) {
	if step.Condition == "" {
		return true, nil
	}

	prompt := fmt.Sprintf(`Evaluate this condition and return ONLY 'true' or 'false':

Condition: %s

Context:
- Variables: %s
- Previous step results: [%s]

Return only 'true' or 'false', nothing else.`,
		step.Condition,
		formatVariables(rc.Variables),
		strings.Join(rc.ExecutedSteps(), ", "))

	reply, err := e.ask(ctx, prompt, "")
	if err != nil {
		return false, fmt.Errorf("condition evaluation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(reply), "true"), nil
}

// dispatch executes one step by type and returns its output text.
func (e *Engine) dispatch(ctx context.Context, step *Step, rc *RunContext) (string, error) {
	switch step.Type {
	case StepPrompt:
		return e.ask(ctx, Render(step.Prompt, rc), step.System)
	case StepTransform:
		return e.runTransform(ctx, step, rc)
	case StepAggregate:
		return e.runAggregate(ctx, step, rc)
	default:
		return "", fmt.Errorf("unknown step type: %s", step.Type)
	}
}

// runTransform resolves the input text (a named prior step's output, or
// the most recent output) and asks the model to apply the transformation.
func (e *Engine) runTransform(ctx context.Context, step *Step, rc *RunContext) (string, error) {
	var input string
	if prior, ok := rc.Steps[step.Input]; step.Input != "" && ok {
		input = prior.Output
	} else if len(rc.Outputs) > 0 {
		input = rc.Outputs[len(rc.Outputs)-1]
	}

	prompt := fmt.Sprintf(`Transform this data:

Input:
%s

Transformation: %s

Apply the transformation and return the result.`, input, step.Transform)

	return e.ask(ctx, prompt, "")
}

// runAggregate collects the named prior outputs (or all outputs when none
// are named), concatenates them under their step names, and asks the
// model to combine them per the step's format hint.
func (e *Engine) runAggregate(ctx context.Context, step *Step, rc *RunContext) (string, error) {
	var sections []string
	for _, name := range step.Inputs {
		if prior, ok := rc.Steps[name]; ok {
			sections = append(sections, fmt.Sprintf("## %s\n%s", name, prior.Output))
		}
	}
	if len(sections) == 0 {
		sections = lo.Map(rc.Outputs, func(out string, i int) string {
			return fmt.Sprintf("## Output %d\n%s", i+1, out)
		})
	}

	format := step.Format
	if format == "" {
		format = "bullet_points"
	}

	prompt := fmt.Sprintf(`Aggregate and format these outputs:

%s

Format: %s

Create a cohesive summary that combines all the information.`, strings.Join(sections, "\n"), format)

	return e.ask(ctx, prompt, "")
}

// report builds the markdown run report: per-step status in execution
// order, then successful outputs truncated for readability.
func (e *Engine) report(defn *Definition, rc *RunContext) string {
	lines := lo.Map(rc.ExecutedSteps(), func(name string, _ int) string {
		if rc.Steps[name].Status == StatusSuccess {
			return "- ✓ " + name
		}
		return "- ✗ " + name
	})

	var outputs []string
	for _, name := range rc.ExecutedSteps() {
		step := rc.Steps[name]
		if step.Status != StatusSuccess {
			continue
		}
		outputs = append(outputs, fmt.Sprintf("### %s\n%s", name, truncate(step.Output, 500)))
	}

	return fmt.Sprintf(`# Workflow Execution Report

**Workflow**: %s
**Description**: %s
**Executed**: %s

## Execution Summary

%s

## Outputs

%s
`,
		defn.Name,
		defn.Description,
		e.now().Format("2006-01-02 15:04"),
		strings.Join(lines, "\n"),
		strings.Join(outputs, "\n---\n"))
}

// formatVariables renders variables as sorted key=value pairs so the
// condition prompt is deterministic.
func formatVariables(vars map[string]string) string {
	keys := lo.Keys(vars)
	sort.Strings(keys)

	pairs := lo.Map(keys, func(k string, _ int) string {
		return k + "=" + vars[k]
	})
	return strings.Join(pairs, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
