// Package aftership provides integration with the AfterShip Shipping rates API.
package aftership

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tournevent/postage/pkg/shipper"
)

const (
	carrierName  = "aftership"
	carrierLabel = "AFTERSHIP"
)

// Config holds AfterShip configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	UseMock bool
}

// Client is the AfterShip provider.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a new AfterShip client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new AfterShip client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// IsEnabled reads the carrier's switch from cfg.
func (c *Client) IsEnabled(cfg shipper.ProvidersConfig) bool {
	return cfg.Enabled(carrierName)
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return c.config.UseMock || strings.TrimSpace(c.config.APIKey) != ""
}

// QuoteDerivesFromQuotes reports that Quote only reduces Quotes.
func (c *Client) QuoteDerivesFromQuotes() bool {
	return true
}

// Quote returns the cheapest rate.
func (c *Client) Quote(ctx context.Context, in *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	quotes, ok := c.Quotes(ctx, in)
	if !ok || len(quotes) == 0 {
		return shipper.CarrierQuote{}, false
	}
	return lo.MinBy(quotes, func(a, b shipper.CarrierQuote) bool {
		return a.TotalCostAud < b.TotalCostAud
	}), true
}

// Quotes returns every positive AUD rate. A reachable API that prices
// nothing still counts as present with an empty list.
func (c *Client) Quotes(ctx context.Context, in *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	if !c.HasCredentials() {
		c.logger.Ctx(ctx).Info("AfterShip API key not configured, skipping")
		return nil, false
	}

	ctx, span := shipper.StartSpan(ctx, c.tracer, carrierName, "quotes")
	defer span.End()

	req := c.buildRatesRequest(in)
	fields := []zap.Field{
		zap.String("to_postcode", req.Shipment.ShipTo.PostalCode),
		zap.Float64("weight_kg", req.Shipment.Parcels[0].Weight.Value),
	}

	resp, err := c.apiClient.CalculateRates(ctx, req)
	if err != nil {
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, toShipperError(err), fields...)
		return nil, false
	}
	if resp == nil {
		err := shipper.NewShipperError(carrierName, shipper.CodeInvalidResponse, "empty response")
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, err, fields...)
		return nil, false
	}

	quotes := toCarrierQuotes(resp.AllRates(), in.Packaging.PackagingCostAud)
	c.logger.Ctx(ctx).Debug("AfterShip rates retrieved", append(fields, zap.Int("count", len(quotes)))...)
	return quotes, true
}

func (c *Client) buildRatesRequest(in *shipper.QuoteInput) *RatesRequest {
	dest := in.Destination()
	return &RatesRequest{
		ShipDate: c.now().Format(time.DateOnly),
		Shipment: Shipment{
			ShipFrom: Address{
				City:       in.Origin.Suburb,
				State:      in.Origin.State,
				PostalCode: in.Origin.Postcode,
				Country:    in.Origin.Country,
			},
			ShipTo: Address{
				City:       dest.Suburb,
				State:      dest.State,
				PostalCode: dest.Postcode,
				Country:    dest.Country,
			},
			Parcels: []Parcel{{
				Weight: Weight{Value: max(in.WeightKg(), 0.001), Unit: "kg"},
				Dimensions: Dimensions{
					Length: in.Packaging.LengthCm,
					Width:  in.Packaging.WidthCm,
					Height: in.Packaging.HeightCm,
					Unit:   "cm",
				},
				Quantity: max(in.TotalPieces(), 1),
			}},
		},
	}
}

func toCarrierQuotes(rates []Rate, packagingCost float64) []shipper.CarrierQuote {
	quotes := make([]shipper.CarrierQuote, 0, len(rates))
	for _, r := range rates {
		charge, ok := r.Charge()
		if !ok || !charge.Amount.Decimal.IsPositive() {
			continue
		}
		if charge.Currency != "" && !strings.EqualFold(charge.Currency, shipper.Currency) {
			continue
		}

		delivery := charge.Amount.Decimal.InexactFloat64()
		quotes = append(quotes, shipper.CarrierQuote{
			Carrier: carrierLabel,
			ServiceName: lo.CoalesceOrEmpty(
				strings.TrimSpace(string(r.ServiceType)),
				strings.TrimSpace(string(r.ServiceName)),
				strings.TrimSpace(string(r.ServiceLevel)),
				strings.TrimSpace(string(r.CourierName)),
				"rate",
			),
			PackagingCostAud: packagingCost,
			DeliveryCostAud:  delivery,
			TotalCostAud:     packagingCost + delivery,
			PricingSource:    carrierLabel + "_API",
		})
	}
	return quotes
}

func toShipperError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return shipper.NewShipperError(carrierName, shipper.CodeHTTPStatus, apiErr.Message).
			WithStatusCode(apiErr.StatusCode).
			WithCause(err)
	}
	return shipper.NewShipperError(carrierName, shipper.CodeTransport, "request failed").
		WithRetryable(true).
		WithCause(err)
}

// Ensure Client implements shipper.Provider
var (
	_ shipper.Provider      = (*Client)(nil)
	_ shipper.DerivedQuoter = (*Client)(nil)
)
