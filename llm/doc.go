// Package llm provides a provider-neutral abstraction layer for Large Language Model (LLM) APIs.
//
// This package defines common types and interfaces that allow the codebase
// to work with multiple chat-completion backends (Anthropic, OpenAI, Ollama)
// without being tightly coupled to any specific provider's SDK.
//
// # Core Concepts
//
//  1. Messages: the Message type represents a conversation message with a
//     role (user, assistant, system) and text content.
//
//  2. Backend Interface: the Backend interface exposes a single Generate()
//     operation. Implementations live in the per-provider subpackages and
//     handle provider-specific wire shapes internally.
//
//  3. Client: the Client type composes a Backend with an optional on-disk
//     response Cache. Identical requests within the cache TTL are served
//     from disk without a backend call.
//
//  4. ResilientClient: wraps any Completer with a sliding-window rate
//     limiter and retry with exponential backoff. Callers above this layer
//     never talk to a Backend directly.
//
//  5. Errors: the Error type provides provider-neutral error handling with
//     support for configuration errors, rate limits, and retryability.
//
// Usage Example
//
//	backend, _ := anthropic.New(apiKey, model, logger)
//	cache, _ := llm.NewCache(".cache", time.Hour, logger)
//	client := llm.NewClient(backend, cache, logger)
//	resilient := llm.NewResilientClient(client, llm.ResilienceOptions{
//	    RequestsPerMinute: 50,
//	    RetryAttempts:     3,
//	    RetryDelay:        time.Second,
//	}, logger)
//
//	resp, err := resilient.Complete(ctx, &llm.Request{
//	    Messages: []llm.Message{llm.NewMessage(llm.RoleUser, "Hello!")},
//	})
package llm
