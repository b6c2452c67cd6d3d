package llm

import (
	"context"
	"errors"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiOracle answers prompts through the Gemini SDK.
type GeminiOracle struct {
	model *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiOracle, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiOracle{model: c.GenerativeModel(model)}, nil
}

func (g *GeminiOracle) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if txt := firstText(resp); txt != "" {
		return txt, nil
	}
	return "", errors.New("no candidates")
}

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
