package agent

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"agentkit/config"
	"agentkit/llm"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const codeReviewSystemPrompt = `You are a senior software engineer conducting code reviews.

Your review should cover:
1. **Code Quality**: Readability, maintainability, DRY principles
2. **Security**: Vulnerabilities, injection risks, auth issues
3. **Performance**: Efficiency, memory usage, algorithmic complexity
4. **Best Practices**: Language idioms, design patterns, testing
5. **Bugs**: Logic errors, edge cases, race conditions

Be constructive and specific. For each issue:
- Explain WHY it's a problem
- Show HOW to fix it
- Rate severity: Critical, Warning, or Suggestion

Format output as markdown with clear sections.`

// maxReviewFiles bounds the number of files reviewed in one run.
const maxReviewFiles = 20

var reviewExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".go": true, ".rs": true, ".java": true, ".cpp": true, ".c": true,
	".rb": true, ".php": true, ".swift": true, ".kt": true,
}

var reviewExcludeDirs = []string{"node_modules", "venv", ".git", "__pycache__", "dist", "build", "vendor"}

// CodeReviewAgent reviews code for quality, security, and best practices.
type CodeReviewAgent struct {
	*Base
}

// NewCodeReviewAgent creates a code review agent on top of completer.
func NewCodeReviewAgent(cfg *config.Config, completer llm.Completer, logger zerolog.Logger) *CodeReviewAgent {
	return &CodeReviewAgent{
		Base: NewBase("codereview", cfg, completer, codeReviewSystemPrompt, logger),
	}
}

// Run reviews a file or directory and returns the review report.
// Focus narrows the review (all, security, performance, quality).
func (a *CodeReviewAgent) Run(ctx context.Context, path, focus string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		files, err = collectFiles(path)
		if err != nil {
			return "", err
		}
	} else {
		files = []string{path}
	}

	a.logger.Info().Int("files", len(files)).Msg("Reviewing files")

	if len(files) > maxReviewFiles {
		files = files[:maxReviewFiles]
	}

	type fileReview struct {
		path   string
		review string
	}
	var reviews []fileReview
	for _, file := range files {
		review, err := a.reviewFile(ctx, file, focus)
		if err != nil {
			a.logger.Warn().Str("file", file).Err(err).Msg("File review failed")
			continue
		}
		reviews = append(reviews, fileReview{path: file, review: review})
	}

	sections := lo.Map(reviews, func(r fileReview, _ int) string {
		return fmt.Sprintf("## %s\n\n%s", r.path, r.review)
	})

	report, err := a.summarize(ctx, sections, focus)
	if err != nil {
		return "", err
	}

	filename := "code_review_" + time.Now().Format("20060102_150405") + ".md"
	if _, err := a.SaveOutput(report, filename); err != nil {
		return "", err
	}
	return report, nil
}

func (a *CodeReviewAgent) reviewFile(ctx context.Context, path, focus string) (string, error) {
	a.logger.Info().Str("file", filepath.Base(path)).Msg("Reviewing")

	content, err := os.ReadFile(path) //#nosec 304 -- reviewing user-specified files is the point
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", path, err)
	}

	prompt := fmt.Sprintf(`Review this file (focus: %s):

File: %s

%s

Provide specific, actionable feedback.`, focus, filepath.Base(path), string(content))

	return a.Ask(ctx, prompt)
}

func (a *CodeReviewAgent) summarize(ctx context.Context, sections []string, focus string) (string, error) {
	prompt := fmt.Sprintf(`These are individual file reviews (focus: %s):

%s

Write an overall code review report: a short summary of the codebase
health, the most important issues across files ordered by severity, and
recommended next steps.`, focus, strings.Join(sections, "\n\n"))

	return a.Ask(ctx, prompt)
}

// collectFiles walks dir for reviewable source files, skipping the usual
// generated and dependency directories.
func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if lo.Contains(reviewExcludeDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if reviewExtensions[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect files under %q: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
