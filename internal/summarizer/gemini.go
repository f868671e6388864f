package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// generateContentClient is the slice of the genai SDK the backend uses.
type generateContentClient interface {
	GenerateContent(ctx context.Context, model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig) (
		*genai.GenerateContentResponse, error)
}

// Gemini summarizes with the Gemini API.
type Gemini struct {
	client generateContentClient
	model  string
	log    *slog.Logger
}

// NewGemini creates a Gemini backed summarizer.
func NewGemini(ctx context.Context, cfg Config,
	log *slog.Logger) (*Gemini, error) {

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return newGemini(client.Models, cfg.Model, log), nil
}

func newGemini(client generateContentClient, model string,
	log *slog.Logger) *Gemini {

	if log == nil {
		log = slog.Default()
	}

	return &Gemini{client: client, model: model, log: log}
}

// Summarize implements Summarizer.
func (g *Gemini) Summarize(ctx context.Context, text string) (string,
	error) {

	resp, err := g.client.GenerateContent(
		ctx, g.model,
		[]*genai.Content{
			genai.NewContentFromText(UserPrompt(text), genai.RoleUser),
		},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(
				SystemPrompt(), genai.RoleUser,
			),
		},
	)
	if err != nil {
		g.log.ErrorContext(ctx, "Gemini API error", "error", err)
		return "", &Error{Provider: ProviderGemini, Err: err}
	}

	// First candidate carrying any text wins.
	var content strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					content.WriteString(part.Text)
				}
			}
			if content.Len() > 0 {
				break
			}
		}
	}

	return finalize(content.String()), nil
}
