package aftership

import (
	"context"

	"github.com/shopspring/decimal"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnCalculateRates func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CalculateRates returns a single economy and a single express rate.
func (m *MockAPIClient) CalculateRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	if m.SimulateErrors {
		return nil, &APIError{StatusCode: 503, Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnCalculateRates != nil {
		return m.OnCalculateRates(ctx, req)
	}

	money := func(s string) *Money {
		return &Money{Currency: "AUD", Amount: decimal.NewNullDecimal(decimal.RequireFromString(s))}
	}
	return &RatesResponse{
		Rates: []Rate{
			{TotalCharge: money("14.95"), ServiceType: "auspost-parcel_post"},
			{TotalCharge: money("21.30"), ServiceName: "Express Post"},
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient
var _ APIClient = (*MockAPIClient)(nil)
