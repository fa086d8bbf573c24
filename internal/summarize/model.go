package summarize

import (
	"context"
	"fmt"
)

// Model is a chat-style text generation backend.
type Model interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Backend names accepted in configuration.
const (
	BackendOpenAI = "openai"
	BackendGroq   = "groq"
	BackendGemini = "gemini"
)

// Default models per backend.
const (
	DefaultOpenAIModel = "google/gemini-2.0-flash-001"
	DefaultOpenAIURL   = "https://openrouter.ai/api/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// ModelConfig selects and configures a backend.
type ModelConfig struct {
	Backend string
	Model   string
	APIKey  string
	// BaseURL applies to the OpenAI-compatible backend only.
	BaseURL string
}

// NewModel builds the backend named by cfg.Backend.
func NewModel(ctx context.Context, cfg ModelConfig) (Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key provided for %s summarizer. Set YTDIGEST_API_KEY or use --api-key", cfg.Backend)
	}

	switch cfg.Backend {
	case BackendOpenAI, "":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case BackendGroq:
		return NewGroq(cfg.APIKey, cfg.Model)
	case BackendGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	}
	return nil, fmt.Errorf("unknown summarizer backend %q", cfg.Backend)
}
