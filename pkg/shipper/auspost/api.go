package auspost

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// APIClient defines the interface for Australia Post PAC API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// CalculatePostage prices a single domestic parcel for one service code.
	CalculatePostage(ctx context.Context, req *PostageRequest) (*PostageResponse, error)
}

// Service codes understood by the domestic parcel calculator.
const (
	ServiceExpress = "AUS_PARCEL_EXPRESS"
	ServiceRegular = "AUS_PARCEL_REGULAR"
)

// PostageRequest is a domestic parcel postage calculation.
type PostageRequest struct {
	FromPostcode string
	ToPostcode   string
	LengthCm     int
	WidthCm      int
	HeightCm     int
	WeightKg     float64
	ServiceCode  string
}

// PostageResponse is the body returned by calculate.json.
type PostageResponse struct {
	PostageResult *PostageResult `json:"postage_result"`
}

// PostageResult carries the priced service. TotalCost is sent either as a
// JSON string or a number.
type PostageResult struct {
	Service      string          `json:"service"`
	DeliveryTime string          `json:"delivery_time"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}
