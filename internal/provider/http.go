package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is the user agent string used for HTTP requests.
// Some upstreams reject requests without a browser-looking agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Client is the shared HTTP layer used by all adapters. It combines a
// token-bucket rate limiter with a per-upstream circuit breaker and maps
// HTTP failures into the Kind taxonomy.
type Client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a client for one upstream host. rps is the sustained
// request rate, burst the bucket size.
func NewClient(name string, rps float64, burst int, log zerolog.Logger) *Client {
	return &Client{
		name:    name,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// A 404 is an answer, not an upstream outage.
				return err == nil || KindOf(err) == KindNotFound
			},
		}),
		log: log.With().Str("client", name).Logger(),
	}
}

// WithHTTPClient swaps the underlying http.Client. Used by adapters that
// need cookie jars or custom transports.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Get performs a rate-limited, breaker-guarded GET and returns the body.
// All failures come back as classified *Error values.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, E(c.name, "", KindTransient, err)
	}

	body, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, url, headers)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Warn().Str("url", url).Msg("circuit breaker open")
			return nil, E(c.name, "", KindTransient, err)
		}
		return nil, err
	}
	return body.([]byte), nil
}

// GetJSON performs Get and decodes the body into out. A payload that does
// not decode is a schema failure.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	body, err := c.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return E(c.name, "", KindSchema, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, E(c.name, "", KindPermanent, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, E(c.name, "", KindTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, resp.Status, snippet)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, E(c.name, "", KindNotFound, err)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, E(c.name, "", KindTransient, err)
		default:
			return nil, E(c.name, "", KindPermanent, err)
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, E(c.name, "", KindTransient, fmt.Errorf("read body: %w", err))
	}
	return body, nil
}
