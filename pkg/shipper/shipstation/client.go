// Package shipstation provides integration with the ShipStation rate
// estimate API.
package shipstation

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
	carrierName  = "shipstation"
	carrierLabel = "SHIPSTATION"
)

// Config holds ShipStation configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	CarrierIDs []string
	Timeout    time.Duration
	UseMock    bool
}

// Client is the ShipStation provider.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new ShipStation client.
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

// NewWithAPIClient creates a new ShipStation client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if len(cfg.CarrierIDs) == 0 {
		cfg.CarrierIDs = DefaultCarrierIDs
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
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

// Quote returns the cheapest estimate.
func (c *Client) Quote(ctx context.Context, in *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	quotes, ok := c.Quotes(ctx, in)
	if !ok || len(quotes) == 0 {
		return shipper.CarrierQuote{}, false
	}
	return lo.MinBy(quotes, func(a, b shipper.CarrierQuote) bool {
		return a.TotalCostAud < b.TotalCostAud
	}), true
}

// Quotes returns every valid AUD estimate.
func (c *Client) Quotes(ctx context.Context, in *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	if !c.HasCredentials() {
		c.logger.Ctx(ctx).Info("ShipStation API key not configured, skipping")
		return nil, false
	}

	ctx, span := shipper.StartSpan(ctx, c.tracer, carrierName, "quotes")
	defer span.End()

	req := c.buildEstimateRequest(in)
	fields := []zap.Field{
		zap.String("from_postcode", req.FromPostalCode),
		zap.String("to_postcode", req.ToPostalCode),
		zap.Float64("weight_g", req.Weight.Value),
	}

	rates, err := c.apiClient.EstimateRates(ctx, req)
	if err != nil {
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, toShipperError(err), fields...)
		return nil, false
	}

	quotes := toCarrierQuotes(rates, in.Packaging.PackagingCostAud)
	if len(quotes) == 0 {
		err := shipper.NewShipperError(carrierName, shipper.CodeNoRates, "no valid AUD rates returned")
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, err, fields...)
		return nil, false
	}

	c.logger.Ctx(ctx).Debug("ShipStation rates retrieved", append(fields, zap.Int("count", len(quotes)))...)
	return quotes, true
}

func (c *Client) buildEstimateRequest(in *shipper.QuoteInput) *EstimateRequest {
	dest := in.Destination()
	origin := in.Origin

	req := &EstimateRequest{
		CarrierIDs:        c.config.CarrierIDs,
		FromCountryCode:   lo.CoalesceOrEmpty(origin.Country, shipper.DefaultCountry),
		FromPostalCode:    origin.Postcode,
		FromCityLocality:  lo.CoalesceOrEmpty(origin.Suburb, origin.Postcode),
		FromStateProvince: origin.State,
		ToCountryCode:     dest.Country,
		ToPostalCode:      dest.Postcode,
		ToCityLocality:    lo.CoalesceOrEmpty(dest.Suburb, dest.Postcode),
		ToStateProvince:   dest.State,
		Weight: Weight{
			Value: float64(max(in.TotalWeightGrams(), 1)),
			Unit:  "gram",
		},
	}

	p := in.Packaging
	if p.LengthCm > 0 && p.WidthCm > 0 && p.HeightCm > 0 {
		req.Dimensions = &Dimensions{
			Length: p.LengthCm,
			Width:  p.WidthCm,
			Height: p.HeightCm,
			Unit:   "centimeter",
		}
	}
	return req
}

func toCarrierQuotes(rates []Rate, packagingCost float64) []shipper.CarrierQuote {
	var quotes []shipper.CarrierQuote
	for _, r := range rates {
		if strings.EqualFold(r.ValidationStatus, "invalid") || r.ShippingAmount == nil {
			continue
		}
		if cur := r.ShippingAmount.Currency; cur != "" && !strings.EqualFold(cur, shipper.Currency) {
			continue
		}
		amount := r.ShippingAmount.Amount
		if !amount.Valid || !amount.Decimal.IsPositive() {
			continue
		}

		delivery := amount.Decimal.InexactFloat64()
		q := shipper.CarrierQuote{
			Carrier:          carrierLabel,
			ServiceName:      lo.CoalesceOrEmpty(r.ServiceCode, r.ServiceType, "rate"),
			PackagingCostAud: packagingCost,
			DeliveryCostAud:  delivery,
			TotalCostAud:     packagingCost + delivery,
			PricingSource:    carrierLabel + "_API",
			RawCarrierRef:    r.CarrierID,
		}
		if days, _, ok := shipper.ParseTransitDays(string(r.DeliveryDays)); ok {
			q = q.WithEta(days, days)
		}
		quotes = append(quotes, q)
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
