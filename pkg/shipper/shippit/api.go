package shippit

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tournevent/postage/pkg/shipper"
)

// APIClient defines the interface for Shippit API operations.
type APIClient interface {
	// GetQuotes requests every courier quote for a parcel.
	GetQuotes(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
}

// Service levels requested from Shippit.
const (
	ServiceLevelStandard = "standard"
	ServiceLevelExpress  = "express"
)

// QuoteRequest is the body of POST /quotes.
type QuoteRequest struct {
	Quote QuoteDetails `json:"quote"`
}

// QuoteDetails describes the drop-off and parcel.
type QuoteDetails struct {
	DropoffPostcode    string             `json:"dropoff_postcode"`
	DropoffState       string             `json:"dropoff_state"`
	DropoffSuburb      string             `json:"dropoff_suburb"`
	DropoffCountryCode string             `json:"dropoff_country_code"`
	ParcelAttributes   []ParcelAttributes `json:"parcel_attributes"`
	ServiceLevels      []string           `json:"service_levels"`
	ReturnAllQuotes    bool               `json:"return_all_quotes"`
}

// ParcelAttributes uses kilograms and metres.
type ParcelAttributes struct {
	Qty    int     `json:"qty"`
	Weight float64 `json:"weight"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
}

// QuoteResponse is the body returned by POST /quotes.
type QuoteResponse struct {
	Response []QuoteEntry `json:"response"`
}

// QuoteEntry groups the quotes of one courier and service level.
type QuoteEntry struct {
	Success      bool          `json:"success"`
	ServiceLevel string        `json:"service_level"`
	CourierType  string        `json:"courier_type"`
	Quotes       []QuoteOption `json:"quotes"`
}

// QuoteOption is one priced option.
type QuoteOption struct {
	Price                 decimal.NullDecimal `json:"price"`
	CourierType           string              `json:"courier_type"`
	EstimatedTransitTime  shipper.FlexString  `json:"estimated_transit_time"`
	EstimatedDeliveryTime shipper.FlexString  `json:"estimated_delivery_time"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
