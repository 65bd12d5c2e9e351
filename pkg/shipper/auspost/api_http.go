package auspost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the public PAC endpoint.
const DefaultBaseURL = "https://digitalapi.auspost.com.au"

const calculatePath = "/postage/parcel/domestic/calculate.json"

// HTTPAPIClient is the production implementation of APIClient using HTTP/JSON.
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

// CalculatePostage calls GET calculate.json.
func (c *HTTPAPIClient) CalculatePostage(ctx context.Context, req *PostageRequest) (*PostageResponse, error) {
	q := url.Values{}
	q.Set("from_postcode", req.FromPostcode)
	q.Set("to_postcode", req.ToPostcode)
	q.Set("length", strconv.Itoa(req.LengthCm))
	q.Set("width", strconv.Itoa(req.WidthCm))
	q.Set("height", strconv.Itoa(req.HeightCm))
	q.Set("weight", strconv.FormatFloat(req.WeightKg, 'f', -1, 64))
	q.Set("service_code", req.ServiceCode)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+calculatePath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("AUTH-KEY", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var out PostageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var env struct {
		Error struct {
			ErrorMessage string `json:"errorMessage"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error.ErrorMessage != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Description: env.Error.ErrorMessage,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Description: string(body),
	}
}

// Ensure HTTPAPIClient implements APIClient
var _ APIClient = (*HTTPAPIClient)(nil)
