package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sells-group/estate-cli/internal/config"
	"github.com/sells-group/estate-cli/internal/resilience"
)

// instantPolicy records delays instead of sleeping.
func instantPolicy(delays *[]time.Duration) resilience.Policy {
	p := resilience.GatewayPolicy()
	p.Jitter = func() float64 { return 0.5 }
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
	return p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want resilience.Outcome
	}{
		{nil, resilience.OutcomeOK},
		{errors.New("Resource has been exhausted (e.g. check quota)."), resilience.OutcomePermanent},
		{errors.New("Rate LIMIT exceeded"), resilience.OutcomePermanent},
		{errors.New("503 Service Unavailable"), resilience.OutcomeTransient},
		{errors.New("context deadline exceeded"), resilience.OutcomeTransient},
		{eris.Wrap(errors.New("daily quota"), "gemini: generate content"), resilience.OutcomePermanent},
		{eris.Wrap(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Too many requests"}, "gemini: generate content"), resilience.OutcomePermanent},
		{&genai.APIError{Code: 429, Message: "try again later"}, resilience.OutcomePermanent},
		{genai.APIError{Code: 500, Status: "INTERNAL", Message: "internal error"}, resilience.OutcomeTransient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Gemini", DisplayName("gemini"))
	assert.Equal(t, "Anthropic", DisplayName("anthropic"))
}

func TestGenerate_Success(t *testing.T) {
	var delays []time.Duration
	p := &mockProvider{}
	p.On("Generate", mock.Anything, "prompt").Return(Completion{Text: "{}", Model: "gemini-1.5-pro"}, nil).Once()

	g := New(p, instantPolicy(&delays))
	c, err := g.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "{}", c.Text)
	assert.Empty(t, delays)
	p.AssertExpectations(t)
}

func TestGenerate_RetriesTransientThenSucceeds(t *testing.T) {
	var delays []time.Duration
	p := &mockProvider{}
	p.On("Generate", mock.Anything, "prompt").Return(Completion{}, errors.New("503 unavailable")).Twice()
	p.On("Generate", mock.Anything, "prompt").Return(Completion{Text: "ok"}, nil).Once()

	g := New(p, instantPolicy(&delays))
	c, err := g.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", c.Text)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 2500 * time.Millisecond}, delays)
	p.AssertNumberOfCalls(t, "Generate", 3)
}

func TestGenerate_ExhaustsAfterFiveRetries(t *testing.T) {
	var delays []time.Duration
	p := &mockProvider{}
	p.On("Generate", mock.Anything, "prompt").Return(Completion{}, errors.New("connection reset"))

	g := New(p, instantPolicy(&delays))
	_, err := g.Generate(context.Background(), "prompt")

	require.Error(t, err)
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindExhausted, gwErr.Kind)
	assert.Equal(t, 6, gwErr.Attempts)
	assert.Equal(t, "gemini", gwErr.Provider)
	assert.EqualError(t, err, "connection reset")
	p.AssertNumberOfCalls(t, "Generate", 6)

	// min(60s, 2^(n-1)s + jitter) with jitter fixed at 0.5s
	assert.Equal(t, []time.Duration{
		1500 * time.Millisecond,
		2500 * time.Millisecond,
		4500 * time.Millisecond,
		8500 * time.Millisecond,
		16500 * time.Millisecond,
	}, delays)
}

func TestGenerate_QuotaNotRetried(t *testing.T) {
	var delays []time.Duration
	p := &mockProvider{}
	p.On("Generate", mock.Anything, "prompt").Return(Completion{}, errors.New("429 quota exceeded")).Once()

	g := New(p, instantPolicy(&delays))
	_, err := g.Generate(context.Background(), "prompt")

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindQuota, gwErr.Kind)
	assert.Equal(t, 1, gwErr.Attempts)
	assert.Empty(t, delays)
	p.AssertExpectations(t)
}

func TestGenerate_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &mockProvider{}
	p.On("Generate", mock.Anything, "prompt").Return(Completion{}, errors.New("timeout")).Once()

	policy := resilience.GatewayPolicy()
	policy.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	g := New(p, policy)
	_, err := g.Generate(ctx, "prompt")

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, KindCanceled, gwErr.Kind)
	assert.Equal(t, 1, gwErr.Attempts)
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Kind: KindExhausted, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "quota", (&Error{Kind: KindQuota}).Error())
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	g, err := FromConfig(ctx, config.LLMConfig{
		Provider: "gemini",
		Gemini:   config.GeminiConfig{Key: "g-key", Model: "gemini-1.5-pro"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Provider().Name())
	assert.Equal(t, "gemini-1.5-pro", g.Provider().Model())

	g, err = FromConfig(ctx, config.LLMConfig{
		Provider:  "anthropic",
		Anthropic: config.AnthropicConfig{Key: "sk-ant", Model: "claude-sonnet-4-5-20250929"},
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", g.Provider().Name())
	assert.Equal(t, "anthropic", g.Name())

	_, err = FromConfig(ctx, config.LLMConfig{Provider: "anthropic"})
	assert.Error(t, err)

	_, err = FromConfig(ctx, config.LLMConfig{Provider: "gemini"})
	assert.Error(t, err)

	_, err = FromConfig(ctx, config.LLMConfig{Provider: "openai"})
	assert.ErrorContains(t, err, "unknown provider")
}
