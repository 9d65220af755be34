// Package agent provides the base shared by all concrete agents: a single
// Ask primitive backed by the resilient completion client, and output
// persistence. Concrete agents (research, code review, data analysis,
// workflow) layer their prompt construction on top.
package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"agentkit/config"
	"agentkit/llm"

	"github.com/rs/zerolog"
)

// Base holds one long-lived completion client per process and exposes the
// Ask and SaveOutput primitives to concrete agents.
type Base struct {
	name      string
	cfg       *config.Config
	completer llm.Completer
	system    string
	logger    zerolog.Logger
}

// askOptions collects per-call Ask overrides.
type askOptions struct {
	system  string
	history []llm.Message
}

// AskOption customizes a single Ask call.
type AskOption func(*askOptions)

// WithSystem overrides the agent's system prompt for one call.
func WithSystem(system string) AskOption {
	return func(o *askOptions) { o.system = system }
}

// WithHistory supplies a conversation prefix; the prompt is appended to it
// as the final user message.
func WithHistory(msgs []llm.Message) AskOption {
	return func(o *askOptions) { o.history = msgs }
}

// NewBase creates an agent base. The system prompt is the agent's default;
// individual Ask calls may override it.
func NewBase(name string, cfg *config.Config, completer llm.Completer, system string, logger zerolog.Logger) *Base {
	return &Base{
		name:      name,
		cfg:       cfg,
		completer: completer,
		system:    system,
		logger:    logger.With().Str("agent", name).Logger(),
	}
}

// Name returns the agent's name.
func (b *Base) Name() string { return b.name }

// SystemPrompt returns the agent's default system prompt.
func (b *Base) SystemPrompt() string { return b.system }

// Ask sends a prompt to the LLM and returns the reply text. Usage and
// cache metadata are logged at debug level and otherwise discarded.
func (b *Base) Ask(ctx context.Context, prompt string, opts ...AskOption) (string, error) {
	var o askOptions
	for _, opt := range opts {
		opt(&o)
	}

	system := o.system
	if system == "" {
		system = b.system
	}

	messages := make([]llm.Message, 0, len(o.history)+1)
	messages = append(messages, o.history...)
	messages = append(messages, llm.NewMessage(llm.RoleUser, prompt))

	resp, err := b.completer.Complete(ctx, &llm.Request{
		Model:       b.cfg.Model,
		Messages:    messages,
		System:      system,
		MaxTokens:   b.cfg.MaxTokens,
		Temperature: b.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	b.logger.Debug().
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Bool("cached", resp.Cached).
		Msg("Completion")

	return resp.Content, nil
}

// SaveOutput writes content under the configured output directory,
// creating it if needed, and returns the full path.
func (b *Base) SaveOutput(content, filename string) (string, error) {
	if err := os.MkdirAll(b.cfg.OutputDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(b.cfg.OutputDir, filename)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	b.logger.Info().Str("path", path).Msg("Saved output")
	return path, nil
}
