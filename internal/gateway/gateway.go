// Package gateway sends prompts to a hosted LLM with backoff retry.
package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/estate-cli/internal/metrics"
	"github.com/sells-group/estate-cli/internal/resilience"
	"github.com/sells-group/estate-cli/pkg/gemini"
)

// Completion is the text and usage returned by one successful call.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Provider is a single hosted model.
type Provider interface {
	// Name is the lowercase provider id ("gemini", "anthropic").
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (Completion, error)
}

// Kind describes why a call ultimately failed.
type Kind string

const (
	// KindQuota means the provider reported a quota or rate limit.
	KindQuota Kind = "quota"
	// KindExhausted means every retry failed transiently.
	KindExhausted Kind = "exhausted"
	// KindCanceled means the context ended while waiting.
	KindCanceled Kind = "canceled"
)

// Error is returned by Gateway.Generate on failure.
type Error struct {
	Kind     Kind
	Provider string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps a provider error to a retry outcome. Messages mentioning a
// quota or limit are not retried, nor are Gemini RESOURCE_EXHAUSTED/429 errors.
func Classify(err error) resilience.Outcome {
	if err == nil {
		return resilience.OutcomeOK
	}
	if code, status := gemini.APIStatus(err); code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED" {
		return resilience.OutcomePermanent
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "limit") {
		return resilience.OutcomePermanent
	}
	return resilience.OutcomeTransient
}

// DisplayName returns the provider name as shown in user-facing errors.
func DisplayName(provider string) string {
	return cases.Title(language.English).String(provider)
}

// Gateway wraps a Provider with the retry policy.
type Gateway struct {
	provider Provider
	policy   resilience.Policy
}

// New creates a Gateway. A zero policy falls back to resilience.GatewayPolicy.
func New(p Provider, policy resilience.Policy) *Gateway {
	if policy.MaxRetries == 0 && policy.BaseDelay == 0 {
		policy = resilience.GatewayPolicy()
	}
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger(p.Name(), "generate")
	}
	return &Gateway{provider: p, policy: policy}
}

// Provider returns the wrapped provider.
func (g *Gateway) Provider() Provider {
	return g.provider
}

// Name returns the wrapped provider's id.
func (g *Gateway) Name() string {
	return g.provider.Name()
}

// Generate sends prompt to the provider, retrying transient failures.
func (g *Gateway) Generate(ctx context.Context, prompt string) (Completion, error) {
	name := g.provider.Name()

	final, attempts := resilience.Run(ctx, g.policy, func(ctx context.Context) resilience.Attempt[Completion] {
		start := time.Now()
		c, err := g.provider.Generate(ctx, prompt)
		outcome := Classify(err)
		metrics.ObserveGateway(name, outcome.String(), time.Since(start))
		if err != nil {
			return resilience.Attempt[Completion]{Outcome: outcome, Err: err}
		}
		return resilience.Succeeded(c)
	})

	if final.Outcome == resilience.OutcomeOK {
		if attempts > 1 {
			zap.L().Info("gateway: succeeded after retry",
				zap.String("provider", name),
				zap.Int("attempts", attempts),
			)
		}
		return final.Value, nil
	}

	kind := KindExhausted
	switch {
	case final.Outcome == resilience.OutcomePermanent:
		kind = KindQuota
	case ctx.Err() != nil:
		kind = KindCanceled
	}

	err := final.Err
	if err == nil {
		err = eris.Wrap(ctx.Err(), "gateway: generate")
	}

	zap.L().Warn("gateway: call failed",
		zap.String("provider", name),
		zap.String("kind", string(kind)),
		zap.Int("attempts", attempts),
		zap.Error(err),
	)

	return Completion{}, &Error{Kind: kind, Provider: name, Attempts: attempts, Err: err}
}
