package aftership

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tournevent/postage/pkg/shipper"
)

// APIClient defines the interface for AfterShip Shipping API operations.
type APIClient interface {
	// CalculateRates returns rates for a shipment.
	CalculateRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
}

// RatesRequest is the body of POST /rates.
type RatesRequest struct {
	ShipDate string   `json:"ship_date"`
	Shipment Shipment `json:"shipment"`
}

// Shipment groups both addresses with the parcels.
type Shipment struct {
	ShipFrom Address  `json:"ship_from"`
	ShipTo   Address  `json:"ship_to"`
	Parcels  []Parcel `json:"parcels"`
}

// Address is a postal address.
type Address struct {
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Parcel is one package line.
type Parcel struct {
	Weight     Weight     `json:"weight"`
	Dimensions Dimensions `json:"dimensions"`
	Quantity   int        `json:"quantity"`
}

// Weight is in kilograms.
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

// RatesResponse carries rates either under data or at the top level.
type RatesResponse struct {
	Data *struct {
		Rates []Rate `json:"rates"`
	} `json:"data"`
	Rates []Rate `json:"rates"`
}

// AllRates returns data.rates when present, the top-level rates otherwise.
func (r *RatesResponse) AllRates() []Rate {
	if r == nil {
		return nil
	}
	if r.Data != nil {
		return r.Data.Rates
	}
	return r.Rates
}

// Rate is one priced service. The charge may arrive under any of several keys.
type Rate struct {
	TotalCharge    *Money             `json:"total_charge"`
	ShippingAmount *Money             `json:"shipping_amount"`
	TotalAmount    *Money             `json:"total_amount"`
	Amount         *Money             `json:"amount"`
	ServiceType    shipper.FlexString `json:"service_type"`
	ServiceName    shipper.FlexString `json:"service_name"`
	ServiceLevel   shipper.FlexString `json:"service_level"`
	CourierName    shipper.FlexString `json:"courier_name"`
}

// Charge returns the first populated money field.
func (r Rate) Charge() (Money, bool) {
	for _, m := range []*Money{r.TotalCharge, r.ShippingAmount, r.TotalAmount, r.Amount} {
		if m != nil && m.Amount.Valid {
			return *m, true
		}
	}
	return Money{}, false
}

// Money is either {"amount": .., "currency": ..} or a bare number.
type Money struct {
	Currency string
	Amount   decimal.NullDecimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Currency     string          `json:"currency"`
			CurrencyCode string          `json:"currency_code"`
			Amount       json.RawMessage `json:"amount"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		m.Currency = obj.Currency
		if m.Currency == "" {
			m.Currency = obj.CurrencyCode
		}
		m.Amount = parseAmount(obj.Amount)
		return nil
	}
	m.Amount = parseAmount(b)
	return nil
}

// parseAmount leaves the amount unset for missing or non-numeric values.
func parseAmount(b []byte) decimal.NullDecimal {
	var d decimal.NullDecimal
	if len(b) == 0 {
		return d
	}
	if err := d.UnmarshalJSON(b); err != nil {
		return decimal.NullDecimal{}
	}
	return d
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
