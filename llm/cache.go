package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Cache is an on-disk response cache keyed by a content hash of the
// request. One JSON file per key. Entries older than the TTL are treated
// as absent and purged lazily on the next lookup.
//
// Entries are whole-file writes, so concurrent processes sharing a cache
// directory can race benignly (duplicate backend calls, last write wins)
// but never observe corrupt state.
type Cache struct {
	dir    string
	ttl    time.Duration
	logger zerolog.Logger

	now func() time.Time // overridable in tests
}

// cacheEntry is the on-disk record format.
type cacheEntry struct {
	Content   string `json:"content"`
	Model     string `json:"model"`
	Usage     Usage  `json:"usage"`
	Timestamp int64  `json:"timestamp"`
}

// cacheKeyPayload is the canonical encoding hashed into a cache key.
// Field order is fixed by the struct definition, so identical logical
// requests always hash identically.
type cacheKeyPayload struct {
	Messages    [][2]string `json:"messages"`
	System      string      `json:"system"`
	Model       string      `json:"model"`
	MaxTokens   int64       `json:"max_tokens"`
	Temperature float64     `json:"temperature"`
}

// NewCache creates a cache rooted at dir, creating the directory if needed.
func NewCache(dir string, ttl time.Duration, logger zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w", dir, err)
	}
	return &Cache{
		dir:    dir,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
		now:    time.Now,
	}, nil
}

// CacheKey computes the deterministic cache key for a request.
func CacheKey(req *Request) string {
	payload := cacheKeyPayload{
		Messages:    make([][2]string, 0, len(req.Messages)),
		System:      req.System,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		payload.Messages = append(payload.Messages, [2]string{string(m.Role), m.Content})
	}

	// Struct marshaling preserves field order, so the encoding is canonical.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached response for key if present and fresh.
// A missing, unreadable, or corrupt entry is a miss. An entry older than
// the TTL is deleted and reported as a miss.
func (c *Cache) Get(key string) (*Response, bool) {
	path := c.entryPath(key)

	data, err := os.ReadFile(path) //#nosec 304 -- path is derived from a content hash
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn().Str("key", key).Err(err).Msg("Discarding corrupt cache entry")
		_ = os.Remove(path)
		return nil, false
	}

	age := c.now().Sub(time.Unix(entry.Timestamp, 0))
	if age > c.ttl {
		c.logger.Debug().Str("key", key).Dur("age", age).Msg("Cache entry expired")
		_ = os.Remove(path)
		return nil, false
	}

	return &Response{
		Content: entry.Content,
		Model:   entry.Model,
		Usage:   entry.Usage,
		Cached:  true,
	}, true
}

// Put stores a response under key. Store failures are logged but not
// returned; a failed cache write must not fail a successful completion.
func (c *Cache) Put(key string, resp *Response) {
	entry := cacheEntry{
		Content:   resp.Content,
		Model:     resp.Model,
		Usage:     resp.Usage,
		Timestamp: c.now().Unix(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn().Str("key", key).Err(err).Msg("Failed to encode cache entry")
		return
	}

	if err := os.WriteFile(c.entryPath(key), data, 0o600); err != nil {
		c.logger.Warn().Str("key", key).Err(err).Msg("Failed to write cache entry")
	}
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
