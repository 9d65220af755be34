package workflow

import (
	"strings"
)

// Render substitutes context references into a prompt template. The
// grammar is a closed set of three reference kinds:
//
//   - {{variables.KEY}} or ${KEY} — a run variable
//   - {{steps.NAME}} — a prior step's output (successful steps only)
//   - {{last_output}} — the most recently produced output
//
// Substitution is literal and non-strict: a reference that does not
// resolve is left in place as ordinary text. That is a deliberate policy,
// not an error.
func Render(template string, rc *RunContext) string {
	result := template

	for key, value := range rc.Variables {
		result = strings.ReplaceAll(result, "{{variables."+key+"}}", value)
		result = strings.ReplaceAll(result, "${"+key+"}", value)
	}

	for name, step := range rc.Steps {
		if step.Status == StatusSuccess {
			result = strings.ReplaceAll(result, "{{steps."+name+"}}", step.Output)
		}
	}

	if len(rc.Outputs) > 0 {
		result = strings.ReplaceAll(result, "{{last_output}}", rc.Outputs[len(rc.Outputs)-1])
	}

	return result
}
