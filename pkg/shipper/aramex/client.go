// Package aramex provides integration with the Aramex SOAP rate calculator.
package aramex

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
	carrierName  = "aramex"
	carrierLabel = "ARAMEX"
)

// Config holds Aramex configuration. Unset product and account fields fall
// back to domestic express defaults.
type Config struct {
	Username       string
	Password       string
	AccountNumber  string
	AccountPin     string
	AccountEntity  string
	AccountCountry string
	ProductGroup   string
	ProductType    string
	PaymentType    string
	Version        string
	Endpoint       string
	Timeout        time.Duration
	UseMock        bool
}

func (c Config) withDefaults() Config {
	c.AccountCountry = lo.CoalesceOrEmpty(strings.TrimSpace(c.AccountCountry), "AU")
	c.ProductGroup = lo.CoalesceOrEmpty(strings.TrimSpace(c.ProductGroup), "EXP")
	c.ProductType = lo.CoalesceOrEmpty(strings.TrimSpace(c.ProductType), "PPX")
	c.PaymentType = lo.CoalesceOrEmpty(strings.TrimSpace(c.PaymentType), "P")
	c.Version = lo.CoalesceOrEmpty(strings.TrimSpace(c.Version), "v1.0")
	return c
}

// Client is the Aramex provider.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Aramex client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(SOAPAPIClientConfig{
			Endpoint: cfg.Endpoint,
			Timeout:  cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Aramex client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg.withDefaults(),
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

// HasCredentials reports whether both username and password are set.
func (c *Client) HasCredentials() bool {
	if c.config.UseMock {
		return true
	}
	return strings.TrimSpace(c.config.Username) != "" && strings.TrimSpace(c.config.Password) != ""
}

// Quote prices the shipment as a single Aramex product.
func (c *Client) Quote(ctx context.Context, in *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	if !c.HasCredentials() {
		c.logger.Ctx(ctx).Info("Aramex credentials not configured, skipping")
		return shipper.CarrierQuote{}, false
	}

	ctx, span := shipper.StartSpan(ctx, c.tracer, carrierName, "quote")
	defer span.End()

	req := c.buildRateRequest(in)
	fields := []zap.Field{
		zap.String("from_city", req.OriginAddress.City),
		zap.String("to_city", req.DestinationAddress.City),
		zap.Float64("weight_kg", req.Details.WeightKg),
		zap.Int("pieces", req.Details.NumberOfPieces),
	}

	resp, err := c.apiClient.CalculateRate(ctx, req)
	if err != nil {
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, toShipperError(err), fields...)
		return shipper.CarrierQuote{}, false
	}

	if resp.HasErrors {
		msg := "rate response has errors"
		if len(resp.Notifications) > 0 {
			n := resp.Notifications[0]
			msg = strings.TrimSpace(n.Code + " " + n.Message)
		}
		err := shipper.NewShipperError(carrierName, shipper.CodeNoRates, msg).WithStatusCode(400)
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, err, fields...)
		return shipper.CarrierQuote{}, false
	}

	total := resp.TotalAmount
	if total == nil || !total.Value.IsPositive() {
		err := shipper.NewShipperError(carrierName, shipper.CodeInvalidResponse, "missing TotalAmount")
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, err, fields...)
		return shipper.CarrierQuote{}, false
	}
	if total.CurrencyCode != "" && !strings.EqualFold(total.CurrencyCode, shipper.Currency) {
		err := shipper.NewShipperError(carrierName, shipper.CodeUnsupportedCurrency, "currency not supported: "+total.CurrencyCode)
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, err, fields...)
		return shipper.CarrierQuote{}, false
	}

	packaging := in.Packaging.PackagingCostAud
	delivery := total.Value.InexactFloat64()
	c.logger.Ctx(ctx).Debug("Aramex rate retrieved", append(fields, zap.Float64("amount", delivery))...)

	return shipper.CarrierQuote{
		Carrier:          carrierLabel,
		ServiceName:      carrierLabel,
		PackagingCostAud: packaging,
		DeliveryCostAud:  delivery,
		TotalCostAud:     packaging + delivery,
		PricingSource:    carrierLabel + "_API",
	}, true
}

// Quotes is not offered; the rate calculator prices one product per call.
func (c *Client) Quotes(context.Context, *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	return nil, false
}

func (c *Client) buildRateRequest(in *shipper.QuoteInput) *RateRequest {
	dest := in.Destination()
	cfg := c.config
	return &RateRequest{
		ClientInfo: ClientInfo{
			UserName:           cfg.Username,
			Password:           cfg.Password,
			Version:            cfg.Version,
			AccountNumber:      cfg.AccountNumber,
			AccountPin:         cfg.AccountPin,
			AccountEntity:      cfg.AccountEntity,
			AccountCountryCode: cfg.AccountCountry,
		},
		Reference: "001",
		OriginAddress: Address{
			City:        in.Origin.Suburb,
			CountryCode: in.Origin.Country,
		},
		DestinationAddress: Address{
			City:        dest.Suburb,
			CountryCode: dest.Country,
		},
		Details: ShipmentDetails{
			PaymentType:    cfg.PaymentType,
			ProductGroup:   cfg.ProductGroup,
			ProductType:    cfg.ProductType,
			WeightKg:       in.WeightKg(),
			NumberOfPieces: max(in.TotalPieces(), 1),
		},
	}
}

func toShipperError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		se := shipper.NewShipperError(carrierName, shipper.CodeHTTPStatus, apiErr.Description).WithCause(err)
		if apiErr.StatusCode != 0 {
			se = se.WithStatusCode(apiErr.StatusCode)
		}
		return se
	}
	return shipper.NewShipperError(carrierName, shipper.CodeTransport, "request failed").
		WithRetryable(true).
		WithCause(err)
}

// Ensure Client implements shipper.Provider
var _ shipper.Provider = (*Client)(nil)
