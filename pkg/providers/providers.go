package providers

import (
	"context"
	"fmt"
)

// Client completes a single prompt with the given model
type Client interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
}

type ProviderParams struct {
	BaseURL string
	APIKey  string
}

type ProviderOption func(*ProviderParams)

func WithBaseURL(baseURL string) ProviderOption {
	return func(p *ProviderParams) {
		p.BaseURL = baseURL
	}
}

func WithAPIKey(apiKey string) ProviderOption {
	return func(p *ProviderParams) {
		p.APIKey = apiKey
	}
}

// New returns the client for a provider name: "openai" (default) or "gemini"
func New(ctx context.Context, name string, opts ...ProviderOption) (Client, error) {
	switch name {
	case "", "openai":
		return OpenAi(ctx, opts...), nil
	case "gemini":
		c, err := Gemini(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
