package llm

import (
	"context"

	"github.com/rs/zerolog"
)

// Client is the completion client: it owns one Backend and an optional
// response Cache. It performs no retries and no rate limiting; wrap it in
// a ResilientClient for that.
type Client struct {
	backend Backend
	cache   *Cache // nil disables caching
	logger  zerolog.Logger
}

// NewClient creates a completion client. Pass a nil cache to disable
// response caching.
func NewClient(backend Backend, cache *Cache, logger zerolog.Logger) *Client {
	return &Client{
		backend: backend,
		cache:   cache,
		logger:  logger.With().Str("component", "llmClient").Logger(),
	}
}

// Complete implements Completer. A fresh cache hit is returned without a
// backend call. On a miss the backend is invoked; failures propagate
// unchanged and nothing is written to the cache.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewConfigError("request is required", nil)
	}

	key := CacheKey(req)

	if c.cache != nil {
		if resp, ok := c.cache.Get(key); ok {
			c.logger.Debug().Str("key", key).Msg("Cache hit")
			return resp, nil
		}
	}

	resp, err := c.backend.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(key, resp)
	}

	resp.Cached = false
	return resp, nil
}

var _ Completer = (*Client)(nil)
