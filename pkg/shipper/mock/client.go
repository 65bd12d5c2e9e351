// Package mock provides a configurable provider for testing and local runs.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tournevent/postage/pkg/shipper"
)

// Client is a mock carrier. By default it is enabled whenever the
// configuration switches it on and returns a standard and an express rate.
type Client struct {
	name string

	// Rates overrides the canned rates. An empty non-nil slice means the
	// carrier offers nothing.
	Rates []shipper.CarrierQuote

	// Absent makes both Quote and Quotes report no rate.
	Absent bool

	// SingleOnly makes Quotes report absent so callers fall through to Quote.
	SingleOnly bool

	// Derived declares Quote to be the cheapest entry of Quotes.
	Derived bool

	// Panic makes every call panic.
	Panic bool

	// Latency delays each call; the call gives up when ctx is done.
	Latency time.Duration

	calls atomic.Int32
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// IsEnabled reads the carrier's switch from cfg.
func (c *Client) IsEnabled(cfg shipper.ProvidersConfig) bool {
	return cfg.Enabled(c.name)
}

// Calls returns how many Quote/Quotes calls were made.
func (c *Client) Calls() int {
	return int(c.calls.Load())
}

// QuoteDerivesFromQuotes implements shipper.DerivedQuoter.
func (c *Client) QuoteDerivesFromQuotes() bool {
	return c.Derived
}

// Quote returns the cheapest mock rate.
func (c *Client) Quote(ctx context.Context, in *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	rates, ok := c.rates(ctx, in)
	if !ok || len(rates) == 0 {
		return shipper.CarrierQuote{}, false
	}
	best := rates[0]
	for _, r := range rates[1:] {
		if r.TotalCostAud < best.TotalCostAud {
			best = r
		}
	}
	return best, true
}

// Quotes returns all mock rates.
func (c *Client) Quotes(ctx context.Context, in *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	if c.SingleOnly {
		c.calls.Add(1)
		return nil, false
	}
	return c.rates(ctx, in)
}

func (c *Client) rates(ctx context.Context, in *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	c.calls.Add(1)
	if c.Panic {
		panic(fmt.Sprintf("%s: simulated panic", c.name))
	}
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, false
		}
	}
	if c.Absent {
		return nil, false
	}
	if c.Rates != nil {
		return append([]shipper.CarrierQuote(nil), c.Rates...), true
	}

	packaging := in.Packaging.PackagingCostAud
	label := strings.ToUpper(c.name)
	standard := shipper.CarrierQuote{
		Carrier:          label,
		ServiceName:      label + " Standard",
		PackagingCostAud: packaging,
		DeliveryCostAud:  12.50,
		TotalCostAud:     packaging + 12.50,
		PricingSource:    label + "_API",
	}.WithEta(2, 5)
	express := shipper.CarrierQuote{
		Carrier:          label,
		ServiceName:      label + " Express",
		PackagingCostAud: packaging,
		DeliveryCostAud:  18.00,
		SurchargesAud:    1.50,
		TotalCostAud:     packaging + 19.50,
		PricingSource:    label + "_API",
	}.WithEta(1, 2)
	return []shipper.CarrierQuote{standard, express}, true
}

var _ shipper.Provider = (*Client)(nil)
