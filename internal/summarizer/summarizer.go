// Package summarizer turns proposal text into a structured markdown brief
// using a hosted language model.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// FallbackSummary is returned when the model answers without any content.
const FallbackSummary = "No summary generated"

// Provider names a generation backend.
type Provider string

const (
	// ProviderOpenAI uses the OpenAI chat completions API.
	ProviderOpenAI Provider = "openai"

	// ProviderGemini uses the Google Gemini API.
	ProviderGemini Provider = "gemini"

	// ProviderAnthropic uses the Anthropic messages API.
	ProviderAnthropic Provider = "anthropic"
)

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return "gpt-4o-mini"
	}
}

// Summarizer produces a summary for a proposal description.
type Summarizer interface {
	// Summarize returns the trimmed markdown summary of text, or
	// FallbackSummary if the model produced nothing. A failed call is
	// reported as *Error.
	Summarize(ctx context.Context, text string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Provider Provider
	APIKey   string

	// Model overrides the provider default.
	Model string

	// BaseURL overrides the provider endpoint. Only honoured by the
	// openai and anthropic backends.
	BaseURL string

	// MaxTokens caps the completion length where the backend needs it.
	MaxTokens int64
}

// DefaultMaxTokens is the completion cap used when none is configured.
const DefaultMaxTokens = 2048

func (c Config) normalize() (Config, error) {
	c.Provider = Provider(strings.ToLower(strings.TrimSpace(
		string(c.Provider),
	)))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}

	switch c.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return c, fmt.Errorf("unknown summarizer provider %q", c.Provider)
	}

	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		return c, fmt.Errorf("%s summarizer: api key is required",
			c.Provider)
	}

	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = c.Provider.DefaultModel()
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}

	return c, nil
}

// New builds the summarizer for cfg.Provider.
func New(ctx context.Context, cfg Config,
	log *slog.Logger) (Summarizer, error) {

	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(
		"component", "summarizer",
		"provider", string(cfg.Provider),
		"model", cfg.Model,
	)

	switch cfg.Provider {
	case ProviderGemini:
		return NewGemini(ctx, cfg, log)

	case ProviderAnthropic:
		return NewAnthropic(cfg, log), nil

	default:
		return NewOpenAI(cfg, log), nil
	}
}

// Error reports a failed generation call.
type Error struct {
	Provider Provider
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("failed to generate summary: %v", e.Err)
}

// Unwrap returns the backend error.
func (e *Error) Unwrap() error {
	return e.Err
}

// finalize trims the model output and substitutes the fallback for empty
// content.
func finalize(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return FallbackSummary
	}

	return content
}
