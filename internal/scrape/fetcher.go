package scrape

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/estate-cli/internal/config"
	"github.com/sells-group/estate-cli/internal/resilience"
)

// maxBodyBytes caps how much of a listing page is read.
const maxBodyBytes = 512 * 1024

// BlockedError is returned when a site serves an anti-bot page.
type BlockedError struct {
	URL  string
	Type BlockType
}

func (e *BlockedError) Error() string {
	return "scrape: blocked (" + string(e.Type) + ") at " + e.URL
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Timeout    time.Duration
	Delay      time.Duration // minimum gap between requests to one host
	UserAgents []string
	Policy     resilience.Policy

	BreakerThreshold int
	BreakerCooldown  time.Duration

	Client *http.Client
}

// OptionsFromConfig maps scrape settings onto FetcherOptions.
func OptionsFromConfig(cfg config.ScrapeConfig) FetcherOptions {
	p := resilience.ScrapePolicy()
	if cfg.MaxRetries > 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	return FetcherOptions{
		Timeout:    time.Duration(cfg.RequestTimeoutSecs) * time.Second,
		Delay:      time.Duration(cfg.RequestDelayMs) * time.Millisecond,
		UserAgents: cfg.UserAgents,
		Policy:     p,
	}
}

// hostLimiter spaces requests to one host. A 429 halves the rate; successes
// recover it gradually, never above the configured rate.
type hostLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	initial rate.Limit
	current rate.Limit
}

func newHostLimiter(delay time.Duration) *hostLimiter {
	r := rate.Every(delay)
	return &hostLimiter{limiter: rate.NewLimiter(r, 1), initial: r, current: r}
}

func (h *hostLimiter) Wait(ctx context.Context) error {
	return h.limiter.Wait(ctx)
}

func (h *hostLimiter) OnSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = min(h.current*1.2, h.initial)
	h.limiter.SetLimit(h.current)
}

func (h *hostLimiter) OnRateLimit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = max(h.current*0.5, h.initial/8)
	h.limiter.SetLimit(h.current)
	zap.L().Warn("scrape: slowing down after 429", zap.Float64("rate", float64(h.current)))
}

// Fetcher downloads listing pages politely: per-host rate limits, rotating
// browser user agents, retries and a per-host circuit breaker.
type Fetcher struct {
	client  *http.Client
	agents  []string
	delay   time.Duration
	policy  resilience.Policy
	bThresh int
	bCool   time.Duration

	mu       sync.Mutex
	limiters map[string]*hostLimiter
	breakers map[string]*resilience.Breaker
	nextUA   atomic.Uint64
}

// NewFetcher creates a Fetcher with defaults filled in.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Delay <= 0 {
		opts.Delay = 2 * time.Second
	}
	if len(opts.UserAgents) == 0 {
		opts.UserAgents = config.DefaultUserAgents
	}
	if opts.Policy.BaseDelay == 0 && opts.Policy.MaxRetries == 0 {
		opts.Policy = resilience.ScrapePolicy()
	}
	if opts.Policy.OnRetry == nil {
		opts.Policy.OnRetry = resilience.RetryLogger("scrape", "fetch")
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Fetcher{
		client:   client,
		agents:   opts.UserAgents,
		delay:    opts.Delay,
		policy:   opts.Policy,
		bThresh:  opts.BreakerThreshold,
		bCool:    opts.BreakerCooldown,
		limiters: make(map[string]*hostLimiter),
		breakers: make(map[string]*resilience.Breaker),
	}
}

func (f *Fetcher) forHost(host string) (*hostLimiter, *resilience.Breaker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = newHostLimiter(f.delay)
		f.limiters[host] = l
	}
	b, ok := f.breakers[host]
	if !ok {
		b = resilience.NewBreaker(f.bThresh, f.bCool)
		f.breakers[host] = b
	}
	return l, b
}

// Get fetches rawURL and returns at most 512 KiB of its body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse url")
	}
	limiter, breaker := f.forHost(u.Host)

	if err := breaker.Allow(); err != nil {
		return nil, eris.Wrapf(err, "scrape: %s", u.Host)
	}

	final, attempts := resilience.Run(ctx, f.policy, func(ctx context.Context) resilience.Attempt[[]byte] {
		if err := limiter.Wait(ctx); err != nil {
			return resilience.Fatal[[]byte](eris.Wrap(err, "scrape: rate limit wait"))
		}
		body, err := f.do(ctx, rawURL)
		if err == nil {
			limiter.OnSuccess()
			return resilience.Succeeded(body)
		}

		var se *resilience.StatusError
		switch {
		case errors.As(err, &se):
			if se.StatusCode == http.StatusTooManyRequests {
				limiter.OnRateLimit()
			}
			return resilience.Attempt[[]byte]{Outcome: resilience.HTTPOutcome(se.StatusCode), Err: err}
		case resilience.IsNetworkTransient(err):
			return resilience.Retryable[[]byte](err)
		default:
			return resilience.Fatal[[]byte](err)
		}
	})

	breaker.Record(final.Err)
	if final.Err != nil {
		zap.L().Debug("scrape: fetch failed",
			zap.String("url", rawURL),
			zap.Int("attempts", attempts),
			zap.Error(final.Err),
		)
		return nil, final.Err
	}
	return final.Value, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: read body")
	}

	if bt := DetectBlock(resp.StatusCode, resp.Header, body); bt != BlockNone {
		return nil, &BlockedError{URL: rawURL, Type: bt}
	}
	if resp.StatusCode >= 400 {
		return nil, &resilience.StatusError{
			Err:        eris.Errorf("scrape: %s returned status %d", rawURL, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	return body, nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	ua := f.agents[int(f.nextUA.Add(1)-1)%len(f.agents)]
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
}
