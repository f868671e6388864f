package summarizer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// messageClient is the slice of the Anthropic SDK the backend uses.
type messageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams,
		opts ...option.RequestOption) (*anthropic.Message, error)
}

// Anthropic summarizes with the Anthropic messages API.
type Anthropic struct {
	client    messageClient
	model     string
	maxTokens int64
	log       *slog.Logger
}

// NewAnthropic creates an Anthropic backed summarizer.
func NewAnthropic(cfg Config, log *slog.Logger) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return newAnthropic(&client.Messages, cfg.Model, cfg.MaxTokens, log)
}

func newAnthropic(client messageClient, model string, maxTokens int64,
	log *slog.Logger) *Anthropic {

	if log == nil {
		log = slog.Default()
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Anthropic{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		log:       log,
	}
}

// Summarize implements Summarizer.
func (a *Anthropic) Summarize(ctx context.Context, text string) (string,
	error) {

	msg, err := a.client.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(UserPrompt(text)),
			),
		},
	})
	if err != nil {
		a.log.ErrorContext(ctx, "Anthropic API error", "error", err)
		return "", &Error{Provider: ProviderAnthropic, Err: err}
	}

	var content strings.Builder
	if msg != nil {
		for _, block := range msg.Content {
			if block.Type == "text" {
				content.WriteString(block.Text)
			}
		}
	}

	return finalize(content.String()), nil
}
