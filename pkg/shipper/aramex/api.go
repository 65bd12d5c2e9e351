package aramex

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// APIClient defines the interface for the Aramex rate calculator.
type APIClient interface {
	// CalculateRate prices a single shipment.
	CalculateRate(ctx context.Context, req *RateRequest) (*RateResponse, error)
}

// ClientInfo authenticates a rate calculator call.
type ClientInfo struct {
	UserName           string
	Password           string
	Version            string
	AccountNumber      string
	AccountPin         string
	AccountEntity      string
	AccountCountryCode string
}

// Address is the minimal address the rate calculator needs.
type Address struct {
	City        string
	CountryCode string
}

// ShipmentDetails describes the product and parcel.
type ShipmentDetails struct {
	PaymentType    string
	ProductGroup   string
	ProductType    string
	WeightKg       float64
	NumberOfPieces int
}

// RateRequest is a CalculateRate call.
type RateRequest struct {
	ClientInfo         ClientInfo
	Reference          string
	OriginAddress      Address
	DestinationAddress Address
	Details            ShipmentDetails
}

// Notification is a message returned alongside HasErrors.
type Notification struct {
	Code    string
	Message string
}

// Money is a priced amount.
type Money struct {
	Value        decimal.Decimal
	CurrencyCode string
}

// RateResponse is the decoded CalculateRate result. TotalAmount is nil when
// the response carried no usable amount.
type RateResponse struct {
	HasErrors     bool
	Notifications []Notification
	TotalAmount   *Money
}

// APIError is returned for SOAP faults and non-2xx responses.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}
