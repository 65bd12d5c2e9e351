package aftership

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the AfterShip Shipping (Postmen) API root.
const DefaultBaseURL = "https://api.aftership.com/postmen/v3"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &HTTPAPIClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CalculateRates calls POST /rates.
func (c *HTTPAPIClient) CalculateRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("as-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseError(resp)
	}

	var result RatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var env struct {
		Meta struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Meta.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       fmt.Sprintf("%d", env.Meta.Code),
			Message:    env.Meta.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message:    string(body),
	}
}

// Ensure HTTPAPIClient implements APIClient
var _ APIClient = (*HTTPAPIClient)(nil)
