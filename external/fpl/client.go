package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/resilience"
	"github.com/jeromehjj/fpl-playmaker/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://fantasy.premierleague.com/api"
	DefaultUserAgent = "fpl-playmaker/1.0"

	defaultTimeout      = 15 * time.Second
	defaultRetryBackoff = time.Second
	maxResponseBytes    = 16 << 20
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RateLimitInterval spaces outgoing requests; zero disables limiting.
	RateLimitInterval time.Duration
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the public fantasy API. It implements usecase.FPLProvider.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	breaker      *resilience.CircuitBreaker
	flight       singleflight.Group
	logger       *logging.Logger
}

var _ usecase.FPLProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	limit := rate.Inf
	if cfg.RateLimitInterval > 0 {
		limit = rate.Every(cfg.RateLimitInterval)
	}

	logger = logger.Named("fpl_client")
	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
			logger.Warn("fpl circuit breaker state changed", "from", from, "to", to)
		}
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		userAgent:    userAgent,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		limiter:      rate.NewLimiter(limit, 1),
		breaker:      resilience.NewCircuitBreakerIfEnabled(breakerCfg),
		logger:       logger,
	}
}

func (c *Client) FetchBootstrap(ctx context.Context) (usecase.ExternalBootstrap, error) {
	var envelope bootstrapEnvelope
	if _, err := c.doJSON(ctx, "/bootstrap-static/", &envelope); err != nil {
		return usecase.ExternalBootstrap{}, fmt.Errorf("fetch bootstrap: %w", err)
	}
	out, err := mapBootstrap(envelope)
	if err != nil {
		return usecase.ExternalBootstrap{}, upstreamError(err)
	}
	return out, nil
}

func (c *Client) FetchEntry(ctx context.Context, teamID int64) (usecase.ExternalEntry, error) {
	var envelope entryPayload
	raw, err := c.doJSON(ctx, fmt.Sprintf("/entry/%d/", teamID), &envelope)
	if err != nil {
		return usecase.ExternalEntry{}, fmt.Errorf("fetch entry team=%d: %w", teamID, err)
	}
	return mapEntry(envelope, raw), nil
}

func (c *Client) FetchPicks(ctx context.Context, teamID, gameweekID int64) (usecase.ExternalPicks, error) {
	var envelope picksEnvelope
	path := fmt.Sprintf("/entry/%d/event/%d/picks/", teamID, gameweekID)
	if _, err := c.doJSON(ctx, path, &envelope); err != nil {
		return usecase.ExternalPicks{}, fmt.Errorf("fetch picks team=%d gameweek=%d: %w", teamID, gameweekID, err)
	}
	return mapPicks(envelope), nil
}

func (c *Client) FetchLive(ctx context.Context, gameweekID int64) (usecase.ExternalLive, error) {
	var envelope liveEnvelope
	if _, err := c.doJSON(ctx, fmt.Sprintf("/event/%d/live/", gameweekID), &envelope); err != nil {
		return usecase.ExternalLive{}, fmt.Errorf("fetch live gameweek=%d: %w", gameweekID, err)
	}
	return mapLive(envelope), nil
}

func (c *Client) FetchFixtures(ctx context.Context, gameweekID int64) ([]gameweek.Fixture, error) {
	var envelope []fixturePayload
	if _, err := c.doJSON(ctx, fmt.Sprintf("/fixtures/?event=%d", gameweekID), &envelope); err != nil {
		return nil, fmt.Errorf("fetch fixtures gameweek=%d: %w", gameweekID, err)
	}
	return mapFixtures(envelope), nil
}

// doJSON fetches path, decodes it into target and returns the raw body.
// Identical concurrent requests share one round trip.
func (c *Client) doJSON(ctx context.Context, path string, target any) ([]byte, error) {
	out, err, _ := c.flight.Do(path, func() (any, error) {
		var raw []byte
		err := c.breaker.Do(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, c.baseURL+path)
			return reqErr
		}, isCircuitFailure)
		return raw, err
	})
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "path", path, "state", c.breaker.State())
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, upstreamError(err)
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, upstreamError(fmt.Errorf("unexpected response payload type %T", out))
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, upstreamError(fmt.Errorf("decode payload path=%s: %w", path, err))
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		raw, status, err := c.get(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: %v", errFPLTransient, err)
		case status >= 200 && status < 300:
			return raw, nil
		case isRetryableStatus(status):
			lastErr = fmt.Errorf("%w: status=%d body=%s", errFPLTransient, status, abbreviateBody(raw))
		default:
			return nil, fmt.Errorf("status=%d body=%s", status, abbreviateBody(raw))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return append([]byte(nil), buf.B...), resp.StatusCode, nil
}

func upstreamError(err error) error {
	return fmt.Errorf("%w: %w", usecase.ErrUpstreamUnavailable, err)
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errFPLTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
