// Package quality fetches the optional success-probability signal from the
// opaque projection provider, with a redis read-through cache and a rate
// limit on upstream calls. Absence of a signal is a normal outcome, not an
// error.
package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/domain/fit"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = time.Hour
	defaultRPS      = 5
	cacheKeyFormat  = "quality:%s"
)

// Client is the quality-signal provider.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    *redis.Client
	limiter  *rate.Limiter
	cacheTTL time.Duration
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithCache enables the redis read-through cache.
func WithCache(rdb *redis.Client, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = rdb
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithRateLimit bounds upstream requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient overrides the HTTP client (used by tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New creates a Client for the provider at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(defaultRPS), 1),
		cacheTTL: defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// estimatePayload mirrors the provider's JSON response.
type estimatePayload struct {
	Probability float64 `json:"probability"`
	Confidence  string  `json:"confidence"`
}

// GetQualityEstimate returns the estimate for a prospect. ok=false means
// the provider has no estimate; only transport failures return an error.
func (c *Client) GetQualityEstimate(ctx context.Context, prospectID string) (fit.QualityEstimate, bool, error) {
	key := fmt.Sprintf(cacheKeyFormat, prospectID)

	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key).Bytes(); err == nil {
			metrics.RecordQualityCacheHit()
			var p estimatePayload
			if jerr := json.Unmarshal(raw, &p); jerr == nil {
				return toEstimate(p), true, nil
			}
		}
		metrics.RecordQualityCacheMiss()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fit.QualityEstimate{}, false, fmt.Errorf("rate limit wait: %w", err)
	}

	u := fmt.Sprintf("%s/estimates/%s", c.baseURL, url.PathEscape(prospectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fit.QualityEstimate{}, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fit.QualityEstimate{}, false, fmt.Errorf("fetch estimate for %s: %w", prospectID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fit.QualityEstimate{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return fit.QualityEstimate{}, false, fmt.Errorf("provider returned %d for %s", resp.StatusCode, prospectID)
	}

	var p estimatePayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return fit.QualityEstimate{}, false, fmt.Errorf("decode estimate for %s: %w", prospectID, err)
	}

	if c.cache != nil {
		if raw, err := json.Marshal(p); err == nil {
			c.cache.Set(ctx, key, raw, c.cacheTTL)
		}
	}

	return toEstimate(p), true, nil
}

func toEstimate(p estimatePayload) fit.QualityEstimate {
	tier := fit.ConfidenceTier(p.Confidence)
	switch tier {
	case fit.ConfidenceHigh, fit.ConfidenceMedium, fit.ConfidenceLow:
	default:
		tier = fit.ConfidenceLow
	}
	return fit.QualityEstimate{Probability: p.Probability, Confidence: tier}
}
