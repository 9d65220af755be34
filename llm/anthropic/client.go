// Package anthropic implements the llm.Backend interface for Anthropic's API.
package anthropic

import (
	"context"
	"strings"

	"agentkit/llm"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// DefaultModel is used when neither the request nor the configuration
// specifies a model.
const DefaultModel = "claude-sonnet-4-20250514"

// Backend implements llm.Backend for Anthropic's Messages API.
type Backend struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

// New creates an Anthropic backend with the given API key and default model.
func New(apiKey, model string, logger zerolog.Logger) (*Backend, error) {
	if apiKey == "" {
		return nil, llm.NewConfigError("anthropic api key is required (set ANTHROPIC_API_KEY)", nil)
	}
	if model == "" {
		model = DefaultModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Backend{
		client: &client,
		model:  model,
		logger: logger.With().Str("component", "anthropicBackend").Logger(),
	}, nil
}

// Generate implements llm.Backend.Generate.
func (b *Backend) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewConfigError("request is required", nil)
	}

	model := req.Model
	if model == "" {
		model = b.model
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   req.MaxTokens,
		Messages:    toMessageParams(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	// Concatenate text blocks; the Messages API can split long replies.
	var content strings.Builder
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(block.Text)
		}
	}

	return &llm.Response{
		Content: content.String(),
		Model:   string(message.Model),
		Usage: llm.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}

// toMessageParams converts neutral messages to Anthropic message params.
// System-role messages are folded in as user text: the Messages API only
// accepts user and assistant roles, system text travels separately.
func toMessageParams(msgs []llm.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case llm.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(block))
		default:
			result = append(result, anthropic.NewUserMessage(block))
		}
	}
	return result
}

var _ llm.Backend = (*Backend)(nil)
