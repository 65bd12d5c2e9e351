// Package quote prices shipments across every enabled carrier and falls back
// to bracket pricing when the primary carrier cannot answer.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tournevent/postage/pkg/rules"
	"github.com/tournevent/postage/pkg/shipper"
)

const (
	// DefaultPrimary is the carrier whose absence triggers bracket pricing.
	DefaultPrimary = "auspost"

	// DefaultProviderTimeout bounds each carrier call.
	DefaultProviderTimeout = 15 * time.Second

	// PricingSourceRules tags quotes derived from the bracket table.
	PricingSourceRules = "RULES"

	rulesServiceName = "Derived from rules"
)

// Provider call outcomes reported to the Recorder.
const (
	OutcomeQuotes  = "quotes"
	OutcomeQuote   = "quote"
	OutcomeAbsent  = "absent"
	OutcomePanic   = "panic"
	OutcomeTimeout = "timeout"
)

// Catalog resolves the entities a request refers to. Lookups of unknown ids
// return an error wrapping shipper.ErrNotFound.
type Catalog interface {
	Item(ctx context.Context, id string) (shipper.Item, error)
	Packaging(ctx context.Context, id string) (shipper.Packaging, error)
	Origin(ctx context.Context) (shipper.OriginSettings, error)
}

// Recorder receives quote metrics.
type Recorder interface {
	RecordProviderCall(provider, outcome string, d time.Duration)
	RecordQuote(fallback bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordProviderCall(string, string, time.Duration) {}
func (nopRecorder) RecordQuote(bool) {}

// Service orchestrates a single quote request.
type Service struct {
	registry     *shipper.Registry
	catalog      Catalog
	logger       *otelzap.Logger
	tracer       trace.Tracer
	metrics      Recorder
	brackets     rules.BracketTable
	providers    shipper.ProvidersConfig
	primary      string
	primaryLabel string
	timeout      time.Duration
	now          func() time.Time
	validator    *validator.Validate
}

// Option configures a Service.
type Option func(*Service)

// WithBrackets sets the bracket table used for rules pricing.
func WithBrackets(t rules.BracketTable) Option {
	return func(s *Service) { s.brackets = t }
}

// WithProvidersConfig sets the per-carrier enablement map.
func WithProvidersConfig(cfg shipper.ProvidersConfig) Option {
	return func(s *Service) { s.providers = cfg }
}

// WithPrimary names the carrier that falls back to rules pricing and the
// carrier label its rules quote carries.
func WithPrimary(name, label string) Option {
	return func(s *Service) {
		s.primary = name
		s.primaryLabel = label
	}
}

// WithProviderTimeout bounds each carrier call.
func WithProviderTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithTracer sets the tracer used for provider spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// New creates a quote service.
func New(registry *shipper.Registry, catalog Catalog, logger *otelzap.Logger, opts ...Option) *Service {
	s := &Service{
		registry:     registry,
		catalog:      catalog,
		logger:       logger,
		tracer:       noop.NewTracerProvider().Tracer("quote"),
		metrics:      nopRecorder{},
		brackets:     rules.DefaultBrackets(),
		primary:      DefaultPrimary,
		primaryLabel: strings.ToUpper(DefaultPrimary),
		timeout:      DefaultProviderTimeout,
		now:          time.Now,
		validator:    newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("quote")
	}
	return s
}

// Quote prices req against every enabled carrier. The returned quotes follow
// registry order; a rules quote replaces an absent primary carrier and is
// also produced when no carrier returned anything.
func (s *Service) Quote(ctx context.Context, req shipper.ShipmentRequest) (*shipper.QuoteResult, error) {
	req = normalizeRequest(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	in, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	volume := in.Packaging.UsableVolumeCm3()
	weightKg := in.WeightKg()
	volumetricKg := rules.VolumetricWeightKg(float64(volume))

	providers := s.registry.Enabled(s.providers)
	results := s.collect(ctx, in, providers)

	quotes := make([]shipper.CarrierQuote, 0, len(providers))
	fallback := false
	for i, p := range providers {
		if results[i].ok {
			for _, q := range results[i].quotes {
				quotes = append(quotes, normalize(p.Name(), q))
			}
			continue
		}
		if p.Name() != s.primary {
			continue
		}
		rq, err := s.rulesQuote(in, weightKg, volumetricKg)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, rq)
		fallback = true
	}

	if len(quotes) == 0 {
		rq, err := s.rulesQuote(in, weightKg, volumetricKg)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, rq)
		fallback = true
	}

	s.metrics.RecordQuote(fallback)
	s.logger.Ctx(ctx).Info("quote computed",
		zap.String("destination", req.DestinationPostcode),
		zap.Int("weight_grams", in.TotalWeightGrams()),
		zap.Int("providers", len(providers)),
		zap.Int("quotes", len(quotes)),
		zap.Bool("rule_fallback", fallback),
	)

	return &shipper.QuoteResult{
		TotalWeightGrams:   in.TotalWeightGrams(),
		WeightInKg:         weightKg,
		VolumeWeightInKg:   volumetricKg,
		TotalVolumeCubicCm: volume,
		Origin:             in.Origin,
		Destination:        in.Destination(),
		Packaging:          in.Packaging,
		CarrierQuotes:      quotes,
		Currency:           shipper.Currency,
		GeneratedAt:        s.now(),
	}, nil
}

func (s *Service) resolve(ctx context.Context, req shipper.ShipmentRequest) (*shipper.QuoteInput, error) {
	origin, err := s.catalog.Origin(ctx)
	if errors.Is(err, shipper.ErrNotFound) {
		return nil, ErrOriginNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("load origin: %w", err)
	}

	packaging, err := s.catalog.Packaging(ctx, req.PackagingID)
	if errors.Is(err, shipper.ErrNotFound) {
		return nil, fmt.Errorf("%w: packaging with id %s not found", ErrUnknownPackaging, req.PackagingID)
	}
	if err != nil {
		return nil, fmt.Errorf("load packaging: %w", err)
	}

	items := make([]shipper.ResolvedItem, 0, len(req.Items))
	for _, sel := range req.Items {
		item, err := s.catalog.Item(ctx, sel.ItemID)
		if errors.Is(err, shipper.ErrNotFound) {
			return nil, fmt.Errorf("%w: item with id %s not found", ErrUnknownItem, sel.ItemID)
		}
		if err != nil {
			return nil, fmt.Errorf("load item %s: %w", sel.ItemID, err)
		}
		items = append(items, shipper.ResolvedItem{Item: item, Quantity: sel.Quantity})
	}

	return &shipper.QuoteInput{
		Request:   req,
		Origin:    origin,
		Packaging: packaging,
		Items:     items,
	}, nil
}

type providerResult struct {
	quotes []shipper.CarrierQuote
	ok     bool
}

// collect queries providers concurrently. Each result lands in the slot of
// its provider so merging can follow registry order.
func (s *Service) collect(ctx context.Context, in *shipper.QuoteInput, providers []shipper.Provider) []providerResult {
	results := make([]providerResult, len(providers))
	if len(providers) == 0 {
		return results
	}

	// Provider calls run to completion or timeout even if the caller goes away.
	base := context.WithoutCancel(ctx)

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			results[i] = s.call(base, p, in)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// call asks p for rates under the provider timeout. A provider that does not
// return in time is reported absent even if it ignores ctx; its goroutine
// finishes in the background.
func (s *Service) call(ctx context.Context, p shipper.Provider, in *shipper.QuoteInput) providerResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "quote.provider",
		trace.WithAttributes(attribute.String("provider", p.Name())))
	defer span.End()

	start := time.Now()
	done := make(chan attempt, 1)
	go func() { done <- s.invoke(ctx, p, in) }()

	var a attempt
	select {
	case a = <-done:
	case <-ctx.Done():
		a = attempt{outcome: OutcomeTimeout}
		s.logger.Ctx(ctx).Warn("provider timed out",
			zap.String("provider", p.Name()),
			zap.Duration("timeout", s.timeout),
		)
	}

	span.SetAttributes(attribute.String("outcome", a.outcome))
	s.metrics.RecordProviderCall(p.Name(), a.outcome, time.Since(start))
	return a.result
}

type attempt struct {
	result  providerResult
	outcome string
}

func (s *Service) invoke(ctx context.Context, p shipper.Provider, in *shipper.QuoteInput) (a attempt) {
	defer func() {
		if r := recover(); r != nil {
			a = attempt{outcome: OutcomePanic}
			s.logger.Ctx(ctx).Error("provider panicked",
				zap.String("provider", p.Name()),
				zap.Any("panic", r),
			)
		}
	}()

	quotes, ok := p.Quotes(ctx, in)
	if ok && len(quotes) > 0 {
		return attempt{result: providerResult{quotes: quotes, ok: true}, outcome: OutcomeQuotes}
	}
	if d, derived := p.(shipper.DerivedQuoter); !derived || !d.QuoteDerivesFromQuotes() {
		if q, ok := p.Quote(ctx, in); ok {
			return attempt{result: providerResult{quotes: []shipper.CarrierQuote{q}, ok: true}, outcome: OutcomeQuote}
		}
	}

	s.logger.Ctx(ctx).Debug("provider returned no quote", zap.String("provider", p.Name()))
	return attempt{outcome: OutcomeAbsent}
}

// normalize tags a carrier quote as API-sourced and makes its total equal
// the sum of its parts.
func normalize(provider string, q shipper.CarrierQuote) shipper.CarrierQuote {
	if q.PricingSource == "" {
		q.PricingSource = strings.ToUpper(provider) + "_API"
	}
	q.RuleFallbackUsed = false
	q.PackagingCostAud = cents(q.PackagingCostAud)
	q.DeliveryCostAud = cents(q.DeliveryCostAud)
	q.SurchargesAud = cents(q.SurchargesAud)
	q.TotalCostAud = sumCosts(q.PackagingCostAud, q.DeliveryCostAud, q.SurchargesAud)
	return q
}

func (s *Service) rulesQuote(in *shipper.QuoteInput, weightKg, volumetricKg float64) (shipper.CarrierQuote, error) {
	express := in.Request.Express
	delivery, err := s.brackets.Price(weightKg, volumetricKg, express)
	if err != nil {
		return shipper.CarrierQuote{}, err
	}

	dest := in.Destination()
	eta, err := rules.EstimateEtaFromStrings(in.Origin.Postcode, dest.Postcode, in.Origin.State, dest.State, express)
	if err != nil {
		return shipper.CarrierQuote{}, fmt.Errorf("estimate delivery: %w", err)
	}

	packaging := cents(in.Packaging.PackagingCostAud)
	delivery = cents(delivery)
	return shipper.CarrierQuote{
		Carrier:          s.primaryLabel,
		ServiceName:      rulesServiceName,
		PackagingCostAud: packaging,
		DeliveryCostAud:  delivery,
		SurchargesAud:    0,
		TotalCostAud:     sumCosts(packaging, delivery, 0),
		PricingSource:    PricingSourceRules,
		RuleFallbackUsed: true,
	}.WithEta(eta.MinDays, eta.MaxDays), nil
}

// sumCosts adds amounts already rounded to cents.
func sumCosts(parts ...float64) float64 {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total.Round(2).InexactFloat64()
}

func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
