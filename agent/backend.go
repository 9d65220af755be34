package agent

import (
	"fmt"

	"agentkit/config"
	"agentkit/llm"
	"agentkit/llm/anthropic"
	"agentkit/llm/ollama"
	"agentkit/llm/openai"

	"github.com/rs/zerolog"
)

// NewBackend creates the backend adapter selected by cfg.Provider.
// An unknown provider or missing credentials is a configuration error.
func NewBackend(cfg *config.Config, logger zerolog.Logger) (llm.Backend, error) {
	switch cfg.Provider {
	case llm.ProviderAnthropic:
		model := cfg.Model
		if model == "" {
			model = cfg.Anthropic.Model
		}
		return anthropic.New(cfg.Anthropic.APIKey, model, logger)

	case llm.ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = cfg.OpenAI.Model
		}
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, model, cfg.OpenAI.Organization, logger)

	case llm.ProviderOllama:
		model := cfg.Model
		if model == "" {
			model = cfg.Ollama.Model
		}
		return ollama.New(cfg.Ollama.Host, model, logger)

	default:
		return nil, llm.NewConfigError(
			fmt.Sprintf("unknown provider %q (use: anthropic, openai, ollama)", cfg.Provider), nil)
	}
}

// NewCompleter builds the full client stack for cfg: backend adapter,
// caching completion client, and resilient wrapper, in that order.
func NewCompleter(cfg *config.Config, logger zerolog.Logger) (llm.Completer, error) {
	backend, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	var cache *llm.Cache
	if !cfg.Cache.Disabled {
		cache, err = llm.NewCache(cfg.Cache.Dir, cfg.CacheTTL(), logger)
		if err != nil {
			return nil, err
		}
	}

	client := llm.NewClient(backend, cache, logger)
	return llm.NewResilientClient(client, llm.ResilienceOptions{
		RequestsPerMinute: cfg.RequestsPerMinute,
		RetryAttempts:     cfg.RetryAttempts,
		RetryDelay:        cfg.RetryDelayDuration(),
	}, logger), nil
}
