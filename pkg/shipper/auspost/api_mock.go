package auspost

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCalculatePostage func(ctx context.Context, req *PostageRequest) (*PostageResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CalculatePostage returns a canned price that grows with weight.
func (m *MockAPIClient) CalculatePostage(ctx context.Context, req *PostageRequest) (*PostageResponse, error) {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: 503, Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnCalculatePostage != nil {
		return m.OnCalculatePostage(ctx, req)
	}

	base := decimal.NewFromFloat(10.95)
	perKg := decimal.NewFromFloat(2.40)
	service, eta := "Parcel Post", "Delivered in 2-5 business days"
	if req.ServiceCode == ServiceExpress {
		base = decimal.NewFromFloat(14.50)
		perKg = decimal.NewFromFloat(3.10)
		service, eta = "Express Post", "Delivered in 1-2 business days"
	}
	total := base.Add(perKg.Mul(decimal.NewFromFloat(req.WeightKg))).Round(2)

	return &PostageResponse{
		PostageResult: &PostageResult{
			Service:      service,
			DeliveryTime: eta,
			TotalCost:    total,
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient
var _ APIClient = (*MockAPIClient)(nil)
