package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// errClient marks 4xx responses; they are neither retried nor counted by the breaker.
var errClient = errors.New("client error")

// Client for requests to a Nominatim-compatible search API
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	userAgent  string
	maxRetries int
	backoff    time.Duration
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:     logger,
		userAgent:  "signalnet/1.0",
		maxRetries: 3,
		backoff:    time.Second,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geocoder",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errClient)
		},
	})

	return c
}

// doRequest for HTTP reqs with retries, guarded by the circuit breaker
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetries(ctx, path, params)
	})
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

func (c *Client) doWithRetries(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if params != nil {
		fullURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoff
			c.logger.Debug("retrying request",
				zap.String("url", fullURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, status, err := c.fetch(ctx, fullURL)
		if err != nil {
			lastErr = err
			continue
		}

		if status >= 200 && status < 300 {
			c.logger.Debug("successful request",
				zap.String("url", fullURL),
				zap.Int("status", status),
			)
			return body, nil
		}

		c.logger.Error("geocoder API error",
			zap.String("url", fullURL),
			zap.Int("status", status),
			zap.String("body", string(body)),
		)

		switch {
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limit exceeded")
		case status >= 400 && status < 500:
			return nil, fmt.Errorf("%w: status %d", errClient, status)
		default:
			lastErr = fmt.Errorf("unexpected status code: %d", status)
		}
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

func (c *Client) parseResponse(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
