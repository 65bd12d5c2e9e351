package aramex

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnCalculateRate func(ctx context.Context, req *RateRequest) (*RateResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CalculateRate prices at 9.90 plus 2.20 per started kilogram.
func (m *MockAPIClient) CalculateRate(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	if m.SimulateErrors {
		return nil, &APIError{StatusCode: 500, Code: "a:InternalServiceFault", Description: "Simulated API error"}
	}

	if m.OnCalculateRate != nil {
		return m.OnCalculateRate(ctx, req)
	}

	kg := decimal.NewFromFloat(math.Ceil(req.Details.WeightKg))
	total := decimal.RequireFromString("9.90").Add(decimal.RequireFromString("2.20").Mul(kg))
	return &RateResponse{
		TotalAmount: &Money{Value: total, CurrencyCode: "AUD"},
	}, nil
}

// Ensure MockAPIClient implements APIClient
var _ APIClient = (*MockAPIClient)(nil)
