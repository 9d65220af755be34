// Package config loads agent configuration from YAML files, merged onto
// compiled defaults with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AnthropicConfig represents configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// OpenAIConfig represents configuration for the OpenAI provider.
// BaseURL makes the adapter usable against any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Model        string `yaml:"model,omitempty"`
	Organization string `yaml:"organization,omitempty"`
}

// OllamaConfig represents configuration for the Ollama provider.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`  // default: http://localhost:11434
	Model string `yaml:"model,omitempty"` // required when provider is ollama
}

// CacheConfig controls the on-disk response cache.
type CacheConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"` // caching is enabled by default
	Dir      string `yaml:"dir,omitempty"`
	TTL      int    `yaml:"ttl,omitempty"` // seconds
}

// Config is the configuration surface shared by all agents.
type Config struct {
	// LLM settings
	Provider    string  `yaml:"provider,omitempty"` // anthropic, openai, ollama
	Model       string  `yaml:"model,omitempty"`    // overrides the provider default
	MaxTokens   int64   `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`

	// Rate limiting and retry
	RequestsPerMinute int     `yaml:"requests_per_minute,omitempty"`
	RetryAttempts     int     `yaml:"retry_attempts,omitempty"`
	RetryDelay        float64 `yaml:"retry_delay,omitempty"` // seconds

	// Caching
	Cache CacheConfig `yaml:"cache,omitempty"`

	// Output
	OutputDir string `yaml:"output_dir,omitempty"`
	Verbose   bool   `yaml:"verbose,omitempty"`

	// Provider credentials and endpoints
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
}

// Defaults returns the compiled-in defaults.
func Defaults() Config {
	return Config{
		Provider:          "anthropic",
		MaxTokens:         4096,
		Temperature:       0.7,
		RequestsPerMinute: 50,
		RetryAttempts:     3,
		RetryDelay:        1.0,
		Cache: CacheConfig{
			Dir: ".cache",
			TTL: 3600,
		},
		OutputDir: "output",
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
	}
}

// Load reads configuration from path (if it exists), merges it onto the
// defaults, and applies environment overrides. An empty path skips the
// file step entirely.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		expanded := expandPath(path)
		data, err := os.ReadFile(expanded) //#nosec 304 -- intentional file read for config
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", expanded, err)
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", expanded, err)
		}

		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	cfg.applyEnv()
	return &cfg, nil
}

// applyEnv applies environment-variable overrides on top of the merged
// configuration. Credentials are only ever read from the environment or
// the config file, never from flags.
func (c *Config) applyEnv() {
	if v := os.Getenv("AGENT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("AGENT_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("AGENT_MAX_TOKENS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("AGENT_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Temperature = f
		}
	}
	if v := os.Getenv("AGENT_VERBOSE"); strings.EqualFold(v, "true") {
		c.Verbose = true
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" && c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_ORG_ID"); v != "" && c.OpenAI.Organization == "" {
		c.OpenAI.Organization = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Ollama.Host = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" && c.Ollama.Model == "" {
		c.Ollama.Model = v
	}
}

// CacheTTL returns the cache time-to-live as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

// RetryDelayDuration returns the base retry delay as a duration.
func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
