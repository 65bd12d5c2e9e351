// Package shipper provides an abstraction layer for parcel carriers.
package shipper

import (
	"context"
)

// Provider is a carrier that can price a shipment.
//
// Quote and Quotes never fail: a missing credential, transport error, bad
// status, unparseable body or foreign currency all yield ok == false so the
// caller can fall back to rules-based pricing.
type Provider interface {
	// Name returns the carrier identifier (e.g., "auspost", "shippit").
	Name() string

	// IsEnabled reads the carrier's switch from cfg.
	IsEnabled(cfg ProvidersConfig) bool

	// Quote returns the cheapest rate the carrier offers.
	Quote(ctx context.Context, in *QuoteInput) (CarrierQuote, bool)

	// Quotes returns every rate the carrier offers, in the carrier's order.
	Quotes(ctx context.Context, in *QuoteInput) ([]CarrierQuote, bool)
}

// CredentialReporter is implemented by providers that can tell whether
// their API credentials are configured.
type CredentialReporter interface {
	HasCredentials() bool
}

// DerivedQuoter is implemented by providers whose Quote is the cheapest
// entry of Quotes. Once Quotes came back absent or empty, Quote is not asked.
type DerivedQuoter interface {
	QuoteDerivesFromQuotes() bool
}
