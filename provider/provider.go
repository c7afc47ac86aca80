// Package provider abstracts the LLM backends that read pages and draft
// answers. Implementations return the model's raw completion text; JSON
// recovery and error classification are the caller's concern.
package provider

import (
	"context"
	"errors"
	"os"
	"time"

	anthropic_provider "github.com/yashsmehta/auto-apply/provider/anthropic"
	openai_provider "github.com/yashsmehta/auto-apply/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	// Generate sends a single prompt and returns the raw completion text.
	Generate(ctx context.Context, prompt string) (string, error)
	// Model reports the completion model in use, for diagnostics.
	Model() string
}

// Settings carries the knobs a backend is constructed with. Zero values fall
// back to backend defaults.
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// New creates an LLM client for the requested backend.
func New(client Client, s Settings) (Provider, error) {
	if s.Timeout <= 0 {
		s.Timeout = 60 * time.Second
	}
	switch client {
	case OpenAI:
		if s.APIKey == "" {
			s.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if s.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		if s.Model == "" {
			s.Model = "gpt-4o-mini"
		}
		return openai_provider.NewClient(s.APIKey, s.BaseURL, s.Model, s.Temperature, s.MaxTokens, s.Timeout), nil
	case Anthropic:
		if s.APIKey == "" {
			s.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if s.APIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY not set")
		}
		if s.Model == "" {
			s.Model = "claude-3-5-sonnet-latest"
		}
		return anthropic_provider.NewClient(s.APIKey, s.BaseURL, s.Model, s.Temperature, s.MaxTokens, s.Timeout), nil
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
