// Package shippit provides integration with the Shippit multi-courier API.
package shippit

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
	carrierName  = "shippit"
	carrierLabel = "SHIPPIT"
)

// Config holds Shippit configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	UseMock    bool
}

// Client is the Shippit provider.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Shippit client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Shippit client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
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

// Quote returns the cheapest courier quote.
func (c *Client) Quote(ctx context.Context, in *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	quotes, ok := c.Quotes(ctx, in)
	if !ok || len(quotes) == 0 {
		return shipper.CarrierQuote{}, false
	}
	return lo.MinBy(quotes, func(a, b shipper.CarrierQuote) bool {
		return a.TotalCostAud < b.TotalCostAud
	}), true
}

// Quotes returns every successful courier quote for the requested service
// level, in the order Shippit listed them.
func (c *Client) Quotes(ctx context.Context, in *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	if !c.HasCredentials() {
		c.logger.Ctx(ctx).Info("Shippit API key not configured, skipping")
		return nil, false
	}

	ctx, span := shipper.StartSpan(ctx, c.tracer, carrierName, "quotes")
	defer span.End()

	level := ServiceLevelStandard
	if in.Request.Express {
		level = ServiceLevelExpress
	}
	req := buildQuoteRequest(in, level)
	fields := []zap.Field{
		zap.String("to_postcode", req.Quote.DropoffPostcode),
		zap.String("service_level", level),
	}

	resp, err := c.apiClient.GetQuotes(ctx, req)
	if err != nil {
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, toShipperError(err), fields...)
		return nil, false
	}

	quotes := toCarrierQuotes(resp, in.Packaging.PackagingCostAud, level)
	if len(quotes) == 0 {
		err := shipper.NewShipperError(carrierName, shipper.CodeNoRates, "no successful quotes for "+level)
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, err, fields...)
		return nil, false
	}

	c.logger.Ctx(ctx).Debug("Shippit quotes retrieved", append(fields, zap.Int("count", len(quotes)))...)
	return quotes, true
}

func buildQuoteRequest(in *shipper.QuoteInput, level string) *QuoteRequest {
	dest := in.Destination()
	return &QuoteRequest{
		Quote: QuoteDetails{
			DropoffPostcode:    dest.Postcode,
			DropoffState:       dest.State,
			DropoffSuburb:      dest.Suburb,
			DropoffCountryCode: dest.Country,
			ParcelAttributes: []ParcelAttributes{{
				Qty:    in.TotalPieces(),
				Weight: in.WeightKg(),
				Length: float64(in.Packaging.LengthCm) / 100,
				Width:  float64(in.Packaging.WidthCm) / 100,
				Depth:  float64(in.Packaging.HeightCm) / 100,
			}},
			ServiceLevels:   []string{level},
			ReturnAllQuotes: true,
		},
	}
}

func toCarrierQuotes(resp *QuoteResponse, packagingCost float64, level string) []shipper.CarrierQuote {
	if resp == nil {
		return nil
	}

	entries := lo.Filter(resp.Response, func(e QuoteEntry, _ int) bool {
		return e.Success && (e.ServiceLevel == "" || strings.EqualFold(e.ServiceLevel, level))
	})

	var quotes []shipper.CarrierQuote
	for _, entry := range entries {
		for _, opt := range entry.Quotes {
			if !opt.Price.Valid || !opt.Price.Decimal.IsPositive() {
				continue
			}

			service := lo.CoalesceOrEmpty(opt.CourierType, entry.CourierType, level)
			delivery := opt.Price.Decimal.InexactFloat64()
			q := shipper.CarrierQuote{
				Carrier:          carrierLabel,
				ServiceName:      service,
				PackagingCostAud: packagingCost,
				DeliveryCostAud:  delivery,
				TotalCostAud:     packagingCost + delivery,
				PricingSource:    carrierLabel + "_API",
			}

			transit := lo.CoalesceOrEmpty(string(opt.EstimatedTransitTime), string(opt.EstimatedDeliveryTime))
			if minDays, maxDays, ok := shipper.ParseTransitDays(transit); ok {
				q = q.WithEta(minDays, maxDays)
			}
			quotes = append(quotes, q)
		}
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
	var decErr *decodeError
	if errors.As(err, &decErr) {
		return shipper.NewShipperError(carrierName, shipper.CodeInvalidResponse, "unreadable response").WithCause(err)
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
