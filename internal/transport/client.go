// Package transport provides the rate-limited, retrying HTTP client shared
// by the Simpro and HubSpot API clients. One Client exists per remote
// service; all workers issue requests through it so the per-service rate
// limit holds regardless of parallelism.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/alexatafm/solar-hub-sync/pkg/constants"
	"github.com/alexatafm/solar-hub-sync/pkg/errors"
	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication, a
// per-service rate limit, and retry on transport-level failures. HTTP
// status codes are never retried here; callers classify them via
// DecodeResponse.
type Client struct {
	service    string
	http       *http.Client
	auth       Authenticator
	limiter    *RateLimiter
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry overrides the retry policy.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// New creates a transport client for one remote service. ratePerSecond
// bounds the outbound request rate; auth is applied to every request.
func New(service string, auth Authenticator, ratePerSecond int, opts ...Option) *Client {
	c := &Client{
		service:    service,
		http:       &http.Client{Timeout: DefaultHTTPTimeout},
		auth:       auth,
		limiter:    NewRateLimiter(ratePerSecond),
		maxRetries: constants.MaxRetries,
		retryDelay: constants.RetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the remote service name this client talks to.
func (c *Client) Service() string {
	return c.service
}

// Limiter returns the client's rate limiter.
func (c *Client) Limiter() *RateLimiter {
	return c.limiter
}

// Do performs an HTTP request with rate limiting, authentication, and
// retry on transport errors. The request body, if any, must be provided
// as a byte slice so it can be replayed across attempts.
func (c *Client) Do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := c.newRequest(ctx, method, url, body)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt < c.maxRetries {
			logging.Ctx(ctx).Warn().
				Str("service", c.service).
				Str("method", method).
				Str("url", url).
				Int("attempt", attempt).
				Err(err).
				Msg("Request failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}

	return nil, &errors.APIError{
		Service:  c.service,
		Endpoint: url,
		Message:  "request failed after retries",
		Err:      lastErr,
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	return c.doJSON(ctx, http.MethodPost, url, body)
}

// Put performs a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, url string, body any) (*http.Response, error) {
	return c.doJSON(ctx, http.MethodPut, url, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, url string, body any) (*http.Response, error) {
	return c.doJSON(ctx, http.MethodPatch, url, body)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.WrapParse("json", "request body", err)
		}
		payload = b
	}
	return c.Do(ctx, method, url, payload)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.WrapAPI(c.service, 0, err)
	}

	if c.auth != nil {
		c.auth.Apply(req)
	}

	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// DecodeResponse decodes a JSON response into the target structure.
// Non-2xx statuses are returned as *errors.APIError; a 404 satisfies
// errors.Is(err, errors.ErrNotFound) so callers can treat "not found" as
// a distinct, non-retried outcome. A nil target discards the body.
func DecodeResponse(service string, resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return &errors.APIError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Endpoint:   resp.Request.URL.String(),
			Message:    msg,
		}
	}

	if target == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", service+" response", err)
	}

	return nil
}
