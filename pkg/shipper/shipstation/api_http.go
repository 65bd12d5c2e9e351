package shipstation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the ShipStation API host.
const DefaultBaseURL = "https://api.shipstation.com"

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
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// EstimateRates calls POST /v2/rates/estimate.
func (c *HTTPAPIClient) EstimateRates(ctx context.Context, req *EstimateRequest) ([]Rate, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v2/rates/estimate", req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseError(resp)
	}

	var rates []Rate
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return rates, nil
}

func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	return c.httpClient.Do(req)
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var env struct {
		Errors []struct {
			ErrorCode string `json:"error_code"`
			Message   string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Errors) > 0 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Errors[0].ErrorCode,
			Message:    env.Errors[0].Message,
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
