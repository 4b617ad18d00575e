package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jmorenn/modelbridge/internal/config"
)

// Default models per backend, matching what the providers serve.
const (
	DefaultOpenAIModel   = "gpt-3.5-turbo-1106"
	DefaultGeminiModel   = "gemini-pro"
	DefaultFastChatModel = "kagentlms_baichuan2_13b_mat"
)

// ProviderConfig holds what's needed to construct a backend client.
type ProviderConfig struct {
	Provider string // "openai", "gemini", or "fastchat"
	Model    string
	Logger   *zap.Logger
}

// NewFromConfig creates the appropriate Client based on provider name. The
// deployment mode, API keys, and the self-hosted server address come from
// the process configuration at construction time.
func NewFromConfig(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAIClient(model, cfg.Logger), nil

	case "gemini":
		model := cfg.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		return NewGeminiClient(model, cfg.Logger), nil

	case "fastchat":
		model := cfg.Model
		if model == "" {
			model = DefaultFastChatModel
		}
		return NewFastChatClient(model, config.GetFastChatHost(), config.GetFastChatPort(), cfg.Logger), nil

	case "":
		return nil, fmt.Errorf("no provider configured (set provider in config or pass --provider)")

	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
}
