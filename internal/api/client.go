package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/securexchat/client-go/internal/apierrors"
)

// Defaults applied by NewClient when a Config field is left zero.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// DefaultRetryOn is the set of status codes retried when Config.RetryOn is empty.
var DefaultRetryOn = []int{408, 429, 500, 502, 503, 504}

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RetryOn    []int
}

// Client is the HTTP client for the relay API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	retryOn    map[int]bool
	retry      *RetryConfig
}

// Option configures the API client.
type Option func(*Config)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithRetries sets the number of retries.
func WithRetries(retries int) Option {
	return func(c *Config) {
		c.MaxRetries = retries
	}
}

// WithRetryDelay sets the initial delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithRetryOn sets the status codes that trigger a retry.
func WithRetryOn(codes []int) Option {
	return func(c *Config) {
		c.RetryOn = codes
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// New creates a client using functional options. An empty apiKey is allowed
// for relays that run without authentication.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg := Config{
		APIKey:     apiKey,
		MaxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClient(cfg)
}

// NewClient creates a client from explicit configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be non-negative, got %d", cfg.MaxRetries)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}
	codes := cfg.RetryOn
	if len(codes) == 0 {
		codes = DefaultRetryOn
	}
	retryOn := make(map[int]bool, len(codes))
	for _, code := range codes {
		retryOn[code] = true
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
		retryOn:    retryOn,
	}

	retry := DefaultRetryConfig()
	retry.MaxRetries = c.maxRetries
	retry.BaseDelay = c.retryDelay
	retry.RetryableOn = c.isRetryable
	c.retry = retry

	return c, nil
}

// BaseURL returns the relay base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// SetHTTPClient sets a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) isRetryable(statusCode int) bool {
	return c.retryOn[statusCode]
}

// Do sends a JSON request and decodes the JSON response into result.
// Transient failures are retried with exponential backoff.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	url := c.baseURL + path
	for attempt := 0; ; attempt++ {
		var retryAfter time.Duration
		resp, err := c.send(ctx, method, url, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt >= c.maxRetries {
				return &apierrors.NetworkError{Err: err, URL: url, Attempt: attempt + 1}
			}
		} else {
			if resp.StatusCode < 400 {
				return decodeResponse(resp, result)
			}
			if !c.retry.ShouldRetry(attempt, resp.StatusCode) {
				return parseErrorResponse(resp)
			}
			retryAfter = parseRetryAfter(resp.Header)
			drain(resp)
		}

		if err := c.retry.Wait(ctx, attempt, retryAfter); err != nil {
			return err
		}
	}
}

func (c *Client) send(ctx context.Context, method, url string, payload []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	if result == nil || resp.StatusCode == http.StatusNoContent {
		drain(resp)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func parseErrorResponse(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &apierrors.APIError{
			StatusCode: resp.StatusCode,
			Message:    errResp.Error,
			RequestID:  errResp.RequestID,
		}
	}

	return &apierrors.APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		RequestID:  resp.Header.Get("X-Request-Id"),
	}
}
