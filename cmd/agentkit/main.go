// Command agentkit runs one LLM agent per invocation: a multi-step
// workflow, a research report, a code review, or a dataset analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"agentkit/agent"
	"agentkit/config"
	"agentkit/logger"
	"agentkit/workflow"
)

// varFlags collects repeatable -var key=value flags.
type varFlags map[string]string

func (v varFlags) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	return strings.Join(pairs, ",")
}

func (v varFlags) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	v[key] = value
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	vars := make(varFlags)
	var (
		agentName    = flag.String("agent", "workflow", "Agent to run: workflow, research, review, analyze")
		configPath   = flag.String("config", "", "Path to config YAML (optional)")
		workflowPath = flag.String("workflow", "", "Workflow YAML file (workflow agent)")
		topic        = flag.String("topic", "", "Research topic (research agent)")
		depth        = flag.String("depth", "standard", "Research depth: quick, standard, deep")
		focus        = flag.String("focus", "all", "Review focus or comma-separated research focus areas")
		path         = flag.String("path", "", "File or directory to review/analyze")
		question     = flag.String("question", "", "Question about the dataset (analyze agent)")
		provider     = flag.String("provider", "", "LLM provider override: anthropic, openai, ollama")
		model        = flag.String("model", "", "Model override")
		outputDir    = flag.String("output", "", "Output directory override")
		verbose      = flag.Bool("verbose", false, "Enable debug logging of token usage")
		logFile      = flag.String("logfile", "", "Path to log file. If not set, logs to stderr")
		pretty       = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Var(vars, "var", "Workflow variable as key=value (repeatable)")
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	log, err := logger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *verbose {
		cfg.Verbose = true
	}

	completer, err := agent.NewCompleter(cfg, log)
	if err != nil {
		return err
	}

	ctx := context.Background()

	switch *agentName {
	case "workflow":
		if *workflowPath == "" {
			return fmt.Errorf("-workflow is required for the workflow agent")
		}
		defn, err := workflow.LoadFile(*workflowPath)
		if err != nil {
			return err
		}
		a := agent.NewWorkflowAgent(cfg, completer, log)
		result, err := a.Run(ctx, defn, vars)
		if err != nil {
			return err
		}
		fmt.Printf("Workflow completed:\n")
		fmt.Printf("  Steps succeeded: %d\n", result.Succeeded)
		fmt.Printf("  Steps failed: %d\n\n", result.Failed)
		fmt.Println(result.Report)

	case "research":
		if *topic == "" {
			return fmt.Errorf("-topic is required for the research agent")
		}
		var focusAreas []string
		if *focus != "" && *focus != "all" {
			focusAreas = strings.Split(*focus, ",")
		}
		a := agent.NewResearchAgent(cfg, completer, log)
		report, err := a.Run(ctx, *topic, *depth, focusAreas)
		if err != nil {
			return err
		}
		fmt.Println(report)

	case "review":
		if *path == "" {
			return fmt.Errorf("-path is required for the review agent")
		}
		a := agent.NewCodeReviewAgent(cfg, completer, log)
		report, err := a.Run(ctx, *path, *focus)
		if err != nil {
			return err
		}
		fmt.Println(report)

	case "analyze":
		if *path == "" {
			return fmt.Errorf("-path is required for the analyze agent")
		}
		a := agent.NewDataAnalysisAgent(cfg, completer, log)
		report, err := a.Run(ctx, *path, *question)
		if err != nil {
			return err
		}
		fmt.Println(report)

	default:
		return fmt.Errorf("unknown agent %q (use: workflow, research, review, analyze)", *agentName)
	}

	return nil
}
