package shippit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Shippit API.
const DefaultBaseURL = "https://app.shippit.com/api/3"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int           // Extra attempts after a 429, 5xx or transport error
	RetryDelay time.Duration // Wait between attempts
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = 250 * time.Millisecond
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &HTTPAPIClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
	}
}

// GetQuotes calls POST /quotes, retrying transient failures.
func (c *HTTPAPIClient) GetQuotes(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, errors.Join(lastErr, ctx.Err())
			}
		}

		out, err := c.getQuotes(ctx, body)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *HTTPAPIClient) getQuotes(ctx context.Context, body []byte) (*QuoteResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quotes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseError(resp)
	}

	var out QuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &decodeError{err: err}
	}
	return &out, nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message:    string(body),
	}
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "failed to decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var decErr *decodeError
	return !errors.As(err, &decErr)
}

// Ensure HTTPAPIClient implements APIClient
var _ APIClient = (*HTTPAPIClient)(nil)
