package gateway

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estate-cli/internal/config"
	"github.com/sells-group/estate-cli/internal/resilience"
	"github.com/sells-group/estate-cli/pkg/anthropic"
	"github.com/sells-group/estate-cli/pkg/gemini"
)

// GeminiProvider calls the Gemini API.
type GeminiProvider struct {
	client gemini.Client
	model  string
}

// NewGemini creates a Gemini-backed provider.
func NewGemini(client gemini.Client, model string) *GeminiProvider {
	return &GeminiProvider{client: client, model: model}
}

func (p *GeminiProvider) Name() string  { return "gemini" }
func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (Completion, error) {
	resp, err := p.client.Generate(ctx, gemini.GenerateRequest{
		Model:  p.model,
		Prompt: prompt,
	})
	if err != nil {
		return Completion{}, err
	}
	return Completion{
		Text:         resp.Text,
		Model:        p.model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates an Anthropic-backed provider.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &AnthropicProvider{client: client, model: model, maxTokens: maxTokens}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string) (Completion, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Completion{}, err
	}
	return Completion{
		Text:         resp.Text(),
		Model:        p.model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// FromConfig builds the configured provider wrapped in a Gateway.
func FromConfig(ctx context.Context, cfg config.LLMConfig) (*Gateway, error) {
	policy := resilience.FromMillis(
		cfg.Retry.MaxRetries,
		cfg.Retry.BaseDelayMs,
		cfg.Retry.MaxDelayMs,
		cfg.Retry.MaxJitterMs,
	)

	switch cfg.Provider {
	case "gemini", "":
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key)
		if err != nil {
			return nil, eris.Wrap(err, "gateway: gemini client")
		}
		return New(NewGemini(client, cfg.Gemini.Model), policy), nil
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("gateway: anthropic api key is required")
		}
		client := anthropic.NewClient(cfg.Anthropic.Key)
		return New(NewAnthropic(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens), policy), nil
	default:
		return nil, eris.Errorf("gateway: unknown provider %q", cfg.Provider)
	}
}
