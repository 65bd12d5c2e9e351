package shippit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetQuotes func(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetQuotes returns two couriers for the requested service level plus one
// failed entry, mirroring a typical Shippit response.
func (m *MockAPIClient) GetQuotes(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: 502, Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnGetQuotes != nil {
		return m.OnGetQuotes(ctx, req)
	}

	level := ServiceLevelStandard
	if len(req.Quote.ServiceLevels) > 0 {
		level = req.Quote.ServiceLevels[0]
	}
	price := func(s string) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.RequireFromString(s))
	}

	return &QuoteResponse{
		Response: []QuoteEntry{
			{
				Success:      true,
				ServiceLevel: level,
				CourierType:  "CouriersPlease",
				Quotes: []QuoteOption{
					{Price: price("11.40"), EstimatedTransitTime: "2-4 business days"},
				},
			},
			{
				Success:      true,
				ServiceLevel: level,
				CourierType:  "Aramex",
				Quotes: []QuoteOption{
					{Price: price("9.85"), CourierType: "Aramex", EstimatedTransitTime: "3 business days"},
				},
			},
			{
				Success:      false,
				ServiceLevel: level,
				CourierType:  "Bonds",
			},
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient
var _ APIClient = (*MockAPIClient)(nil)
