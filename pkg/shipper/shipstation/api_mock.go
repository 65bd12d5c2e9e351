package shipstation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnEstimateRates func(ctx context.Context, req *EstimateRequest) ([]Rate, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// EstimateRates returns two domestic estimates.
func (m *MockAPIClient) EstimateRates(ctx context.Context, req *EstimateRequest) ([]Rate, error) {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: 500, Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnEstimateRates != nil {
		return m.OnEstimateRates(ctx, req)
	}

	aud := func(s string) *Money {
		return &Money{Currency: "aud", Amount: decimal.NewNullDecimal(decimal.RequireFromString(s))}
	}
	return []Rate{
		{
			RateType:         "check",
			CarrierID:        "se-4731463",
			ServiceCode:      "startrack_premium",
			ValidationStatus: "valid",
			ShippingAmount:   aud("16.20"),
			DeliveryDays:     "2",
		},
		{
			RateType:         "check",
			CarrierID:        "se-4731464",
			ServiceCode:      "sendle_standard",
			ValidationStatus: "valid",
			ShippingAmount:   aud("10.75"),
			DeliveryDays:     "4",
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient
var _ APIClient = (*MockAPIClient)(nil)
