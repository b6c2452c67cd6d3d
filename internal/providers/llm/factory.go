package llm

import (
	"context"
	"os"
	"strings"
)

// NewFromEnv returns an Oracle based on environment variables.
// Supported providers:
// - LLM_PROVIDER=gemini|openai
// - For Gemini: GOOGLE_API_KEY, optional LLM_MODEL
// - For OpenAI: OPENAI_API_KEY, optional LLM_MODEL, OPENAI_API_BASE
// If nothing is configured, returns a MockOracle.
// Set LLM_CACHE_SIZE to wrap the provider in a prompt-hash cache.
func NewFromEnv(ctx context.Context) Oracle {
	o := newProviderFromEnv(ctx)
	if size := envInt("LLM_CACHE_SIZE", 0); size > 0 {
		if cached, err := NewCached(o, size); err == nil {
			return cached
		}
	}
	return o
}

func newProviderFromEnv(ctx context.Context) Oracle {
	prov := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	switch prov {
	case "gemini":
		if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
			if c, err := NewGemini(ctx, key, modelWithDefault("gemini-1.5-flash")); err == nil {
				return c
			}
		}
	case "openai":
		if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
			return &OpenAIOracle{APIKey: key, Model: modelWithDefault("gpt-4o-mini"), BaseURL: strings.TrimRight(os.Getenv("OPENAI_API_BASE"), "/")}
		}
	}

	// Auto-detect by API key presence if provider not specified
	if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
		if c, err := NewGemini(ctx, key, modelWithDefault("gemini-1.5-flash")); err == nil {
			return c
		}
	}
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return &OpenAIOracle{APIKey: key, Model: modelWithDefault("gpt-4o-mini"), BaseURL: strings.TrimRight(os.Getenv("OPENAI_API_BASE"), "/")}
	}

	return &MockOracle{}
}

func modelWithDefault(def string) string {
	if v := strings.TrimSpace(os.Getenv("LLM_MODEL")); v != "" {
		return v
	}
	return def
}
