package summarizer

import (
	"context"
	"log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// chatCompletionClient is the slice of the OpenAI SDK the backend uses.
type chatCompletionClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams,
		opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI summarizes with the chat completions API.
type OpenAI struct {
	client chatCompletionClient
	model  string
	log    *slog.Logger
}

// NewOpenAI creates an OpenAI backed summarizer.
func NewOpenAI(cfg Config, log *slog.Logger) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)

	return newOpenAI(&client.Chat.Completions, cfg.Model, log)
}

func newOpenAI(client chatCompletionClient, model string,
	log *slog.Logger) *OpenAI {

	if log == nil {
		log = slog.Default()
	}

	return &OpenAI{client: client, model: model, log: log}
}

// Summarize implements Summarizer.
func (o *OpenAI) Summarize(ctx context.Context, text string) (string,
	error) {

	completion, err := o.client.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt()),
			openai.UserMessage(UserPrompt(text)),
		},
	})
	if err != nil {
		o.log.ErrorContext(ctx, "OpenAI API error", "error", err)
		return "", &Error{Provider: ProviderOpenAI, Err: err}
	}

	var content string
	if completion != nil && len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
	}

	return finalize(content), nil
}
