package agent

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentkit/config"
	"agentkit/llm"

	"github.com/rs/zerolog"
)

const dataAnalysisSystemPrompt = `You are a senior data analyst. Your job is to:
1. Understand the data structure and quality
2. Identify patterns, trends, and anomalies
3. Provide actionable business insights
4. Suggest next steps for deeper analysis
5. Recommend visualizations

Be specific with numbers and examples. Focus on insights that drive decisions.
Format output as markdown with clear sections.`

// profileSampleRows bounds how many data rows are embedded in the prompt.
const profileSampleRows = 20

// DataAnalysisAgent analyzes CSV datasets and generates insights.
type DataAnalysisAgent struct {
	*Base
}

// NewDataAnalysisAgent creates a data analysis agent on top of completer.
func NewDataAnalysisAgent(cfg *config.Config, completer llm.Completer, logger zerolog.Logger) *DataAnalysisAgent {
	return &DataAnalysisAgent{
		Base: NewBase("dataanalysis", cfg, completer, dataAnalysisSystemPrompt, logger),
	}
}

// dataProfile summarizes a dataset's shape for prompt embedding.
type dataProfile struct {
	rows    int
	columns []string
	missing map[string]int
	sample  [][]string
}

// Run analyzes a CSV file. With a question, it answers that question
// about the data; otherwise it produces a comprehensive analysis.
func (a *DataAnalysisAgent) Run(ctx context.Context, path, question string) (string, error) {
	a.logger.Info().Str("file", filepath.Base(path)).Msg("Analyzing")

	profile, err := profileCSV(path)
	if err != nil {
		return "", err
	}

	var analysis string
	if question != "" {
		analysis, err = a.answerQuestion(ctx, profile, question)
	} else {
		analysis, err = a.comprehensiveAnalysis(ctx, profile)
	}
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	report := fmt.Sprintf("# Data Analysis: %s\n\n%s\n\n%s", filepath.Base(path), profile.describe(), analysis)

	filename := "analysis_" + safeName(stem) + "_" + time.Now().Format("20060102_150405") + ".md"
	if _, err := a.SaveOutput(report, filename); err != nil {
		return "", err
	}
	return report, nil
}

func (a *DataAnalysisAgent) answerQuestion(ctx context.Context, profile *dataProfile, question string) (string, error) {
	prompt := fmt.Sprintf(`Dataset profile:
%s

Question: %s

Answer the question using the profile and sample rows. Be specific and
note where the sample is too small to be conclusive.`, profile.describe(), question)

	return a.Ask(ctx, prompt)
}

func (a *DataAnalysisAgent) comprehensiveAnalysis(ctx context.Context, profile *dataProfile) (string, error) {
	prompt := fmt.Sprintf(`Dataset profile:
%s

Provide a comprehensive analysis: data quality observations, likely
patterns and trends, anomalies worth investigating, business insights,
and recommended visualizations.`, profile.describe())

	return a.Ask(ctx, prompt)
}

// profileCSV reads a CSV file and produces a lightweight profile: row
// count, column names, per-column missing counts, and a head sample.
func profileCSV(path string) (*dataProfile, error) {
	f, err := os.Open(path) //#nosec 304 -- analyzing user-specified files is the point
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty dataset: %q", path)
	}

	header := records[0]
	rows := records[1:]

	profile := &dataProfile{
		rows:    len(rows),
		columns: header,
		missing: make(map[string]int),
	}
	for _, row := range rows {
		for i, col := range header {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				profile.missing[col]++
			}
		}
	}

	n := profileSampleRows
	if n > len(rows) {
		n = len(rows)
	}
	profile.sample = rows[:n]

	return profile, nil
}

// describe renders the profile as markdown for prompt embedding.
func (p *dataProfile) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Rows: %d\n- Columns (%d): %s\n", p.rows, len(p.columns), strings.Join(p.columns, ", "))

	var missing []string
	for _, col := range p.columns {
		if p.missing[col] > 0 {
			missing = append(missing, fmt.Sprintf("%s (%d)", col, p.missing[col]))
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "- Missing values: %s\n", strings.Join(missing, ", "))
	}

	fmt.Fprintf(&b, "\nSample rows:\n\n%s\n", renderTable(p.columns, p.sample))
	return b.String()
}

// renderTable renders a small markdown table.
func renderTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}
