// Package auspost provides integration with the Australia Post postage
// calculator.
package auspost

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tournevent/postage/pkg/shipper"
)

const (
	carrierName  = "auspost"
	carrierLabel = "AUSPOST"
)

// Config holds Australia Post configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	UseMock bool
}

// Client is the Australia Post provider.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Australia Post client.
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

// NewWithAPIClient creates a new Australia Post client with a custom API client.
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

// Quotes is not offered; the calculator prices one service per call.
func (c *Client) Quotes(context.Context, *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	return nil, false
}

// Quote prices the parcel for the requested service level.
func (c *Client) Quote(ctx context.Context, in *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	if !c.HasCredentials() {
		c.logger.Ctx(ctx).Info("Australia Post API key not configured, skipping")
		return shipper.CarrierQuote{}, false
	}

	ctx, span := shipper.StartSpan(ctx, c.tracer, carrierName, "quote")
	defer span.End()

	express := in.Request.Express
	serviceCode := ServiceRegular
	if express {
		serviceCode = ServiceExpress
	}

	req := &PostageRequest{
		FromPostcode: in.Origin.Postcode,
		ToPostcode:   in.Request.DestinationPostcode,
		LengthCm:     in.Packaging.LengthCm,
		WidthCm:      in.Packaging.WidthCm,
		HeightCm:     in.Packaging.HeightCm,
		WeightKg:     in.WeightKg(),
		ServiceCode:  serviceCode,
	}
	fields := []zap.Field{
		zap.String("from_postcode", req.FromPostcode),
		zap.String("to_postcode", req.ToPostcode),
		zap.String("service_code", serviceCode),
	}

	resp, err := c.apiClient.CalculatePostage(ctx, req)
	if err != nil {
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, toShipperError(err), fields...)
		return shipper.CarrierQuote{}, false
	}

	q, err := toCarrierQuote(resp, in.Packaging.PackagingCostAud, express)
	if err != nil {
		shipper.LogUnavailable(ctx, c.logger, span, carrierName, err, fields...)
		return shipper.CarrierQuote{}, false
	}

	c.logger.Ctx(ctx).Debug("Australia Post quote retrieved",
		append(fields, zap.Float64("total_cost", q.TotalCostAud))...)
	return q, true
}

func toCarrierQuote(resp *PostageResponse, packagingCost float64, express bool) (shipper.CarrierQuote, error) {
	if resp == nil || resp.PostageResult == nil {
		return shipper.CarrierQuote{}, shipper.NewShipperError(carrierName, shipper.CodeInvalidResponse, "missing postage_result")
	}
	result := resp.PostageResult
	if !result.TotalCost.IsPositive() {
		return shipper.CarrierQuote{}, shipper.NewShipperError(carrierName, shipper.CodeInvalidResponse, "missing total_cost")
	}

	service := result.Service
	if service == "" {
		service = "Parcel Post"
		if express {
			service = "Express Post"
		}
	}

	minDays, maxDays, ok := shipper.ParseTransitDays(result.DeliveryTime)
	if !ok {
		minDays, maxDays = 2, 6
		if express {
			minDays, maxDays = 1, 3
		}
	}

	delivery := result.TotalCost.InexactFloat64()
	return shipper.CarrierQuote{
		Carrier:          carrierLabel,
		ServiceName:      service,
		PackagingCostAud: packagingCost,
		DeliveryCostAud:  delivery,
		TotalCostAud:     packagingCost + delivery,
		PricingSource:    carrierLabel + "_API",
	}.WithEta(minDays, maxDays), nil
}

func toShipperError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return shipper.NewShipperError(carrierName, shipper.CodeHTTPStatus, apiErr.Description).
			WithStatusCode(apiErr.StatusCode).
			WithCause(err)
	}
	return shipper.NewShipperError(carrierName, shipper.CodeTransport, "request failed").
		WithRetryable(true).
		WithCause(err)
}

// Ensure Client implements shipper.Provider
var _ shipper.Provider = (*Client)(nil)
