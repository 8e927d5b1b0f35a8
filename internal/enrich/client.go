// Package enrich provides the optional LLM layer of the pipeline: spec
// enrichment completions and idle RPG design document generation. Every
// consumer treats this package as best-effort; the pipeline never fails
// because a model is unreachable.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
)

// Defaults for local-first usage: a local Ollama server needs no API key
// and no network egress.
const (
	DefaultProvider = "ollama"
	DefaultModel    = "qwen2.5-coder:7b"
	DefaultTimeout  = 120 * time.Second
)

// Config selects and tunes the completion backend.
type Config struct {
	// Provider is one of: openai, anthropic, gemini, ollama, deepseek,
	// mistral, groq, llamacpp.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// BaseURL overrides the provider endpoint (e.g. a remote Ollama host).
	BaseURL string `yaml:"base_url"`
	// APIKey falls back to the provider's environment variable when empty.
	APIKey string `yaml:"api_key"`

	Temperature *float64      `yaml:"temperature"`
	MaxTokens   *int          `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Client is a thin completion wrapper over any-llm-go, implementing the
// single-shot system+user exchange the pipeline needs.
type Client struct {
	backend anyllmlib.Provider
	cfg     Config
}

// New creates a completion client for cfg.Provider. Empty provider and
// model fall back to the local Ollama defaults.
func New(cfg Config) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var opts []anyllmlib.Option
	if cfg.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(cfg.BaseURL))
	}

	backend, err := createBackend(cfg.Provider, opts...)
	if err != nil {
		return nil, fmt.Errorf("enrich: create %q backend: %w", cfg.Provider, err)
	}
	return &Client{backend: backend, cfg: cfg}, nil
}

func createBackend(provider string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp", provider)
	}
}

// Complete sends one system+user exchange and returns the text of the
// first choice. The configured timeout bounds the whole call.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := anyllmlib.CompletionParams{
		Model: c.cfg.Model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: system},
			{Role: anyllmlib.RoleUser, Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	resp, err := c.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("enrich: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("enrich: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
