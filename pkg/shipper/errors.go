package shipper

import (
	"errors"
	"fmt"
	"net/http"
)

// ShipperError describes why a carrier call produced no rate. It never
// leaves a provider; providers log it and report the quote as absent.
type ShipperError struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ShipperError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ShipperError. Errors with a status code also
// match the sentinel for that status class.
func (e *ShipperError) Is(target error) bool {
	switch target {
	case ErrAuthenticationFailed:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimitExceeded:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServiceUnavailable:
		return e.StatusCode >= 500
	}
	t, ok := target.(*ShipperError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewShipperError creates a new ShipperError.
func NewShipperError(carrier, code, message string) *ShipperError {
	return &ShipperError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *ShipperError) WithCause(err error) *ShipperError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error and marks 429 and
// 5xx responses as retryable.
func (e *ShipperError) WithStatusCode(code int) *ShipperError {
	e.StatusCode = code
	if code == http.StatusTooManyRequests || code >= 500 {
		e.Retryable = true
	}
	return e
}

// WithRetryable marks the error as retryable.
func (e *ShipperError) WithRetryable(retryable bool) *ShipperError {
	e.Retryable = retryable
	return e
}

// Error codes shared by carrier clients.
const (
	CodeTransport           = "TRANSPORT"
	CodeHTTPStatus          = "HTTP_STATUS"
	CodeInvalidResponse     = "INVALID_RESPONSE"
	CodeUnsupportedCurrency = "UNSUPPORTED_CURRENCY"
	CodeNoRates             = "NO_RATES"
)

// Sentinel errors for common carrier scenarios.
var (
	// ErrServiceUnavailable indicates the carrier service is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAuthenticationFailed indicates carrier authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRateLimitExceeded indicates the carrier rate limit was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrProviderNotFound indicates the requested carrier is not registered.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrNotFound is returned by catalog lookups for unknown ids.
	ErrNotFound = errors.New("not found")
)

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}

// IsCarrierRejection reports whether the carrier answered with a 4xx status,
// as opposed to failing on its side or in transit.
func IsCarrierRejection(err error) bool {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.StatusCode >= 400 && shipperErr.StatusCode < 500
	}
	return errors.Is(err, ErrAuthenticationFailed)
}
