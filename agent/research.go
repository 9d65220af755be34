package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agentkit/config"
	"agentkit/llm"

	"github.com/rs/zerolog"
)

const researchSystemPrompt = `You are an expert research analyst. Your job is to:
1. Thoroughly analyze the given topic
2. Identify key themes, trends, and insights
3. Structure findings into a clear, actionable report
4. Cite sources and provide evidence for claims
5. Highlight implications and recommendations

Be thorough but concise. Focus on actionable insights over generic observations.
Use markdown formatting for structure.`

// ResearchAgent conducts research on a topic and generates a report.
type ResearchAgent struct {
	*Base
}

// NewResearchAgent creates a research agent on top of completer.
func NewResearchAgent(cfg *config.Config, completer llm.Completer, logger zerolog.Logger) *ResearchAgent {
	return &ResearchAgent{
		Base: NewBase("research", cfg, completer, researchSystemPrompt, logger),
	}
}

// Run researches a topic at the given depth (quick, standard, deep) and
// returns the synthesized report. Focus areas narrow the outline.
func (a *ResearchAgent) Run(ctx context.Context, topic, depth string, focusAreas []string) (string, error) {
	outline, err := a.createOutline(ctx, topic, focusAreas)
	if err != nil {
		return "", fmt.Errorf("outline failed: %w", err)
	}

	sections, err := a.researchSections(ctx, topic, outline, depth)
	if err != nil {
		return "", fmt.Errorf("research failed: %w", err)
	}

	report, err := a.synthesize(ctx, topic, sections)
	if err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}

	filename := "research_" + safeName(topic) + "_" + time.Now().Format("20060102_150405") + ".md"
	if _, err := a.SaveOutput(report, filename); err != nil {
		return "", err
	}

	return report, nil
}

func (a *ResearchAgent) createOutline(ctx context.Context, topic string, focusAreas []string) (string, error) {
	focus := ""
	if len(focusAreas) > 0 {
		focus = "\nFocus areas: " + strings.Join(focusAreas, ", ")
	}

	prompt := fmt.Sprintf(`Create a research outline for: %s%s

Return a structured outline with 4-6 main sections. For each section include:
- Section title
- Key questions to answer
- Types of information needed

Format as markdown with ## headers.`, topic, focus)

	return a.Ask(ctx, prompt)
}

func (a *ResearchAgent) researchSections(ctx context.Context, topic, outline, depth string) ([]string, error) {
	iterations := map[string]int{"quick": 1, "standard": 2, "deep": 3}[depth]
	if iterations == 0 {
		iterations = 2
	}

	var sections []string
	for i := 0; i < iterations; i++ {
		a.logger.Info().Int("pass", i+1).Int("total", iterations).Msg("Research pass")

		prompt := fmt.Sprintf(`Topic: %s

Outline:
%s

Research pass %d of %d. Expand on the outline sections with concrete
findings, data points, and examples. Go deeper than the previous pass.`,
			topic, outline, i+1, iterations)

		section, err := a.Ask(ctx, prompt)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func (a *ResearchAgent) synthesize(ctx context.Context, topic string, sections []string) (string, error) {
	prompt := fmt.Sprintf(`Topic: %s

Research notes:
%s

Synthesize these notes into a final research report with: executive
summary, key findings, analysis, implications, and recommendations.
Use markdown structure.`, topic, strings.Join(sections, "\n\n---\n\n"))

	return a.Ask(ctx, prompt)
}

// safeName reduces a free-form string to a filename-safe stem.
func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
