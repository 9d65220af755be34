// Package ollama implements the llm.Backend interface for Ollama's API.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"agentkit/llm"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"
)

// Backend implements llm.Backend for a local or remote Ollama server.
type Backend struct {
	client *api.Client
	model  string
	logger zerolog.Logger
}

// New creates an Ollama backend.
// If host is empty, the client is configured from the environment
// (OLLAMA_HOST or http://localhost:11434). A model is required since
// Ollama has no server-side default.
func New(host, model string, logger zerolog.Logger) (*Backend, error) {
	if model == "" {
		return nil, llm.NewConfigError("ollama model is required", nil)
	}

	var client *api.Client
	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, llm.NewConfigError(fmt.Sprintf("invalid ollama host %q", host), err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, llm.NewConfigError("failed to create ollama client", err)
		}
	}

	return &Backend{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "ollamaBackend").Logger(),
	}, nil
}

// parseHost parses a host string into a URL, defaulting the scheme to http.
func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
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

	messages := make([]api.Message, 0, len(req.Messages)+1)

	// Ollama accepts system text as a leading system-role message.
	if req.System != "" {
		messages = append(messages, api.Message{
			Role:    "system",
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   new(bool), // false for non-streaming
		Options:  make(map[string]interface{}),
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.MaxTokens)
	}
	chatReq.Options["temperature"] = req.Temperature

	var chatResp api.ChatResponse
	err := b.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		chatResp = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat request failed: %w", err)
	}

	return &llm.Response{
		Content: chatResp.Message.Content,
		Model:   model,
		Usage: llm.Usage{
			InputTokens:  int64(chatResp.PromptEvalCount),
			OutputTokens: int64(chatResp.EvalCount),
		},
	}, nil
}

var _ llm.Backend = (*Backend)(nil)
