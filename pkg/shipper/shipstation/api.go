package shipstation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tournevent/postage/pkg/shipper"
)

// APIClient defines the interface for ShipStation API operations.
type APIClient interface {
	// EstimateRates returns rate estimates across the requested carriers.
	EstimateRates(ctx context.Context, req *EstimateRequest) ([]Rate, error)
}

// DefaultCarrierIDs are the connected carrier accounts queried when none
// are configured.
var DefaultCarrierIDs = []string{"se-4731463", "se-4731464", "se-4731516", "se-4731511"}

// EstimateRequest is the body of POST /v2/rates/estimate.
type EstimateRequest struct {
	CarrierIDs        []string    `json:"carrier_ids"`
	FromCountryCode   string      `json:"from_country_code"`
	FromPostalCode    string      `json:"from_postal_code"`
	FromCityLocality  string      `json:"from_city_locality"`
	FromStateProvince string      `json:"from_state_province"`
	ToCountryCode     string      `json:"to_country_code"`
	ToPostalCode      string      `json:"to_postal_code"`
	ToCityLocality    string      `json:"to_city_locality"`
	ToStateProvince   string      `json:"to_state_province"`
	Weight            Weight      `json:"weight"`
	Dimensions        *Dimensions `json:"dimensions,omitempty"`
}

// Weight is a value with its unit ("gram").
type Weight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Dimensions are in centimetres.
type Dimensions struct {
	Length int    `json:"length"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Unit   string `json:"unit"`
}

// Rate is one estimated rate.
type Rate struct {
	RateType         string             `json:"rate_type"`
	CarrierID        string             `json:"carrier_id"`
	ServiceCode      string             `json:"service_code"`
	ServiceType      string             `json:"service_type"`
	ValidationStatus string             `json:"validation_status"`
	ShippingAmount   *Money             `json:"shipping_amount"`
	DeliveryDays     shipper.FlexString `json:"delivery_days"`
}

// Money is an amount in a currency.
type Money struct {
	Currency string              `json:"currency"`
	Amount   decimal.NullDecimal `json:"amount"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
