// Package oracle sends verification prompts to a language model.
//
// Every backend implements Oracle: one single-turn request carrying the full
// prompt and an output-token budget, answered with plain text. Errors are
// returned as-is; the feedback loop treats any oracle error as fatal.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultMaxTokens is used when a request carries no budget.
const DefaultMaxTokens = 500

// Oracle answers a prompt with model text.
type Oracle interface {
	Query(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Provider names a backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Config selects and configures a backend.
type Config struct {
	Provider Provider
	Model    string
	// APIKey overrides the environment and KeyFile when non-empty.
	APIKey string
	// KeyFile is read when neither APIKey nor the provider's env var is set.
	KeyFile string
	// BaseURL overrides the provider endpoint (OpenAI-compatible servers).
	BaseURL string
}

// ErrNoAPIKey is returned when no credential source yields a key.
var ErrNoAPIKey = errors.New("no API key configured")

// envVar returns the environment variable holding the provider's key.
func (p Provider) envVar() string {
	switch p {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// ResolveAPIKey finds the key: explicit value, then environment, then key file.
func ResolveAPIKey(cfg Config) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	if key := os.Getenv(cfg.Provider.envVar()); key != "" {
		return key, nil
	}
	if cfg.KeyFile != "" {
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return "", fmt.Errorf("%w: read key file: %v", ErrNoAPIKey, err)
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: set %s or a key file", ErrNoAPIKey, cfg.Provider.envVar())
}

// New builds the backend named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Oracle, error) {
	key, err := ResolveAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(key, cfg.Model, cfg.BaseURL), nil
	case ProviderGemini:
		return NewGemini(ctx, key, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

func budget(maxTokens int) int {
	if maxTokens <= 0 {
		return DefaultMaxTokens
	}
	return maxTokens
}
