package quote_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/postage/pkg/quote"
	"github.com/tournevent/postage/pkg/rules"
	"github.com/tournevent/postage/pkg/shipper"
	"github.com/tournevent/postage/pkg/shipper/mock"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeCatalog struct {
	items     map[string]shipper.Item
	packaging map[string]shipper.Packaging
	origin    *shipper.OriginSettings
	calls     int
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		items: map[string]shipper.Item{
			"widget": {ID: "widget", Name: "Widget", UnitWeightGrams: 100},
			"brick":  {ID: "brick", Name: "Brick", UnitWeightGrams: 1000},
		},
		packaging: map[string]shipper.Packaging{
			// 40,000 cm³ is 10 kg volumetric, outside every test bracket.
			"box": {ID: "box", Name: "Box", LengthCm: 20, HeightCm: 20, WidthCm: 100, PackagingCostAud: 2.50},
			"crate": {
				ID: "crate", Name: "Crate", LengthCm: 100, HeightCm: 100, WidthCm: 100,
				InternalVolumeCubicCm: 1_000_000, PackagingCostAud: 5,
			},
		},
		origin: &shipper.OriginSettings{Postcode: "3000", Suburb: "Melbourne", State: "VIC", Country: "AU"},
	}
}

func (c *fakeCatalog) Item(_ context.Context, id string) (shipper.Item, error) {
	c.calls++
	it, ok := c.items[id]
	if !ok {
		return shipper.Item{}, fmt.Errorf("item %s: %w", id, shipper.ErrNotFound)
	}
	return it, nil
}

func (c *fakeCatalog) Packaging(_ context.Context, id string) (shipper.Packaging, error) {
	c.calls++
	p, ok := c.packaging[id]
	if !ok {
		return shipper.Packaging{}, fmt.Errorf("packaging %s: %w", id, shipper.ErrNotFound)
	}
	return p, nil
}

func (c *fakeCatalog) Origin(context.Context) (shipper.OriginSettings, error) {
	c.calls++
	if c.origin == nil {
		return shipper.OriginSettings{}, shipper.ErrNotFound
	}
	return *c.origin, nil
}

type recorder struct {
	mu        sync.Mutex
	calls     map[string]string
	fallbacks int
	quotes    int
}

func (r *recorder) RecordProviderCall(provider, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]string)
	}
	r.calls[provider] = outcome
}

func (r *recorder) RecordQuote(fallback bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes++
	if fallback {
		r.fallbacks++
	}
}

func newService(t *testing.T, reg *shipper.Registry, cat quote.Catalog, opts ...quote.Option) *quote.Service {
	t.Helper()
	logger := otelzap.New(zap.NewNop())
	opts = append([]quote.Option{quote.WithClock(func() time.Time { return fixedNow })}, opts...)
	return quote.New(reg, cat, logger, opts...)
}

func absentPrimary() *shipper.Registry {
	reg := shipper.NewRegistry()
	p := mock.New("auspost")
	p.Absent = true
	reg.Register(p)
	return reg
}

func request(items ...shipper.ItemSelection) shipper.ShipmentRequest {
	return shipper.ShipmentRequest{
		DestinationPostcode: "3004",
		DestinationSuburb:   "Melbourne",
		DestinationState:    "VIC",
		Items:               items,
		PackagingID:         "box",
	}
}

func TestQuote_RulesStandard(t *testing.T) {
	table := rules.BracketTable{{MinKg: 0, MaxKg: 0.25, Standard: 9.70, Express: 12.70}}
	svc := newService(t, absentPrimary(), newCatalog(), quote.WithBrackets(table))

	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, 200, result.TotalWeightGrams)
	assert.InDelta(t, 0.2, result.WeightInKg, 1e-9)
	assert.InDelta(t, 10.0, result.VolumeWeightInKg, 1e-9)
	assert.Equal(t, 40000, result.TotalVolumeCubicCm)
	assert.Equal(t, "AUD", result.Currency)
	assert.Equal(t, fixedNow, result.GeneratedAt)
	assert.Equal(t, "AU", result.Destination.Country)

	require.Len(t, result.CarrierQuotes, 1)
	q := result.CarrierQuotes[0]
	assert.Equal(t, "AUSPOST", q.Carrier)
	assert.Equal(t, "Derived from rules", q.ServiceName)
	assert.Equal(t, 9.70, q.DeliveryCostAud)
	assert.Equal(t, 2.50, q.PackagingCostAud)
	assert.Equal(t, 0.0, q.SurchargesAud)
	assert.InDelta(t, 12.20, q.TotalCostAud, 1e-9)
	assert.Equal(t, quote.PricingSourceRules, q.PricingSource)
	assert.True(t, q.RuleFallbackUsed)
	require.NotNil(t, q.DeliveryEtaDaysMin)
	require.NotNil(t, q.DeliveryEtaDaysMax)
	assert.Equal(t, 2, *q.DeliveryEtaDaysMin)
	assert.Equal(t, 4, *q.DeliveryEtaDaysMax)
}

func TestQuote_RulesExpress(t *testing.T) {
	table := rules.BracketTable{{MinKg: 0, MaxKg: 0.25, Standard: 9.70, Express: 12.70}}
	svc := newService(t, absentPrimary(), newCatalog(), quote.WithBrackets(table))

	req := request(shipper.ItemSelection{ItemID: "widget", Quantity: 2})
	req.Express = true
	result, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, result.CarrierQuotes, 1)
	q := result.CarrierQuotes[0]
	assert.Equal(t, 12.70, q.DeliveryCostAud)
	assert.Equal(t, 1, *q.DeliveryEtaDaysMin)
	assert.Equal(t, 2, *q.DeliveryEtaDaysMax)
}

func TestQuote_RulesVolumetricDominates(t *testing.T) {
	table := rules.BracketTable{
		{MinKg: 0, MaxKg: 1, Standard: 10.0, Express: 15.0},
		{MinKg: 200, MaxKg: 300, Standard: 20.0, Express: 25.0},
	}
	svc := newService(t, absentPrimary(), newCatalog(), quote.WithBrackets(table))

	req := request(shipper.ItemSelection{ItemID: "widget", Quantity: 2})
	req.PackagingID = "crate"
	result, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.InDelta(t, 250.0, result.VolumeWeightInKg, 1e-9)
	require.Len(t, result.CarrierQuotes, 1)
	assert.Equal(t, 20.0, result.CarrierQuotes[0].DeliveryCostAud)
}

func TestQuote_BracketExhaustion(t *testing.T) {
	table := rules.BracketTable{{MinKg: 2.0, MaxKg: 3.0, Standard: 19.30, Express: 23.80}}
	svc := newService(t, absentPrimary(), newCatalog(), quote.WithBrackets(table))

	_, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "brick", Quantity: 1}))
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrNoBracketMatch)
	assert.True(t, quote.IsClientError(err))
}

func TestQuote_BracketExhaustionIgnoredWhenCarrierAnswers(t *testing.T) {
	table := rules.BracketTable{{MinKg: 2.0, MaxKg: 3.0, Standard: 19.30, Express: 23.80}}
	reg := shipper.NewRegistry()
	reg.Register(mock.New("auspost"))
	svc := newService(t, reg, newCatalog(), quote.WithBrackets(table))

	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "brick", Quantity: 1}))
	require.NoError(t, err)
	assert.Len(t, result.CarrierQuotes, 2)
}

func TestQuote_PrimaryToggle(t *testing.T) {
	reg := shipper.NewRegistry()
	primary := mock.New("auspost")
	primary.Absent = true
	primary.SingleOnly = true
	reg.Register(primary)
	reg.Register(mock.New("shippit"))

	cfg := shipper.ProvidersConfig{"auspost": {Enabled: true}}
	svc := newService(t, reg, newCatalog(), quote.WithProvidersConfig(cfg))
	req := request(shipper.ItemSelection{ItemID: "widget", Quantity: 2})

	fallback, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, fallback.CarrierQuotes, 1)
	assert.Equal(t, "RULES", fallback.CarrierQuotes[0].PricingSource)
	assert.True(t, fallback.CarrierQuotes[0].RuleFallbackUsed)

	primary.Absent = false
	live, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, live.CarrierQuotes, 1)
	assert.Equal(t, "AUSPOST_API", live.CarrierQuotes[0].PricingSource)
	assert.False(t, live.CarrierQuotes[0].RuleFallbackUsed)
	assert.Equal(t, "AUSPOST Standard", live.CarrierQuotes[0].ServiceName)

	fallback.CarrierQuotes, live.CarrierQuotes = nil, nil
	assert.Equal(t, fallback, live, "only the carrier line changes")
}

func TestQuote_RegistryOrderAndMultiQuotes(t *testing.T) {
	reg := shipper.NewRegistry()
	slow := mock.New("shippit")
	slow.Latency = 30 * time.Millisecond
	slow.Rates = []shipper.CarrierQuote{
		{Carrier: "CouriersPlease", ServiceName: "b", DeliveryCostAud: 20},
		{Carrier: "Aramex", ServiceName: "a", DeliveryCostAud: 10},
	}
	reg.Register(slow)
	reg.Register(mock.New("auspost"))
	silent := mock.New("aramex")
	silent.Absent = true
	reg.Register(silent)

	svc := newService(t, reg, newCatalog())
	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)

	require.Len(t, result.CarrierQuotes, 4)
	assert.Equal(t, "b", result.CarrierQuotes[0].ServiceName)
	assert.Equal(t, "a", result.CarrierQuotes[1].ServiceName)
	assert.Equal(t, "SHIPPIT_API", result.CarrierQuotes[0].PricingSource)
	assert.Equal(t, "AUSPOST Standard", result.CarrierQuotes[2].ServiceName)
	assert.Equal(t, "AUSPOST Express", result.CarrierQuotes[3].ServiceName)
	for _, q := range result.CarrierQuotes {
		assert.False(t, q.RuleFallbackUsed)
	}
}

func TestQuote_NonPrimaryAbsentContributesNothing(t *testing.T) {
	reg := shipper.NewRegistry()
	reg.Register(mock.New("auspost"))
	other := mock.New("aftership")
	other.Absent = true
	reg.Register(other)

	svc := newService(t, reg, newCatalog())
	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)
	for _, q := range result.CarrierQuotes {
		assert.Equal(t, "AUSPOST", q.Carrier)
	}
}

func TestQuote_FallbackWhenNothingAnswers(t *testing.T) {
	reg := shipper.NewRegistry()
	other := mock.New("shippit")
	other.Absent = true
	reg.Register(other)

	svc := newService(t, reg, newCatalog())
	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)
	require.Len(t, result.CarrierQuotes, 1)
	assert.True(t, result.CarrierQuotes[0].RuleFallbackUsed)

	empty := newService(t, shipper.NewRegistry(), newCatalog())
	result, err = empty.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)
	require.Len(t, result.CarrierQuotes, 1)
	assert.Equal(t, "RULES", result.CarrierQuotes[0].PricingSource)
}

func TestQuote_PanicAndTimeoutAreAbsent(t *testing.T) {
	reg := shipper.NewRegistry()
	broken := mock.New("auspost")
	broken.Panic = true
	reg.Register(broken)
	stuck := mock.New("shippit")
	stuck.Latency = 5 * time.Second
	reg.Register(stuck)
	working := mock.New("aftership")
	reg.Register(working)

	rec := &recorder{}
	svc := newService(t, reg, newCatalog(),
		quote.WithProviderTimeout(50*time.Millisecond),
		quote.WithMetrics(rec),
	)

	start := time.Now()
	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, result.CarrierQuotes, 3)
	assert.Equal(t, "RULES", result.CarrierQuotes[0].PricingSource)
	assert.Equal(t, "AFTERSHIP_API", result.CarrierQuotes[1].PricingSource)

	assert.Equal(t, quote.OutcomePanic, rec.calls["auspost"])
	assert.Contains(t, []string{quote.OutcomeAbsent, quote.OutcomeTimeout}, rec.calls["shippit"])
	assert.Equal(t, quote.OutcomeQuotes, rec.calls["aftership"])
	assert.Equal(t, 1, rec.quotes)
	assert.Equal(t, 1, rec.fallbacks)
}

// unresponsive blocks until released, whatever its context says.
type unresponsive struct {
	release chan struct{}
}

func (u *unresponsive) Name() string { return "shipstation" }

func (u *unresponsive) IsEnabled(shipper.ProvidersConfig) bool { return true }

func (u *unresponsive) Quote(context.Context, *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	<-u.release
	return shipper.CarrierQuote{Carrier: "LATE", DeliveryCostAud: 1}, true
}

func (u *unresponsive) Quotes(context.Context, *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	<-u.release
	return []shipper.CarrierQuote{{Carrier: "LATE", DeliveryCostAud: 1}}, true
}

func TestQuote_ProviderIgnoringContextTimesOut(t *testing.T) {
	stuck := &unresponsive{release: make(chan struct{})}
	t.Cleanup(func() { close(stuck.release) })

	reg := shipper.NewRegistry()
	reg.Register(mock.New("auspost"))
	reg.Register(stuck)

	rec := &recorder{}
	svc := newService(t, reg, newCatalog(),
		quote.WithProviderTimeout(50*time.Millisecond),
		quote.WithMetrics(rec),
	)

	start := time.Now()
	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, result.CarrierQuotes, 2)
	for _, q := range result.CarrierQuotes {
		assert.Equal(t, "AUSPOST_API", q.PricingSource)
	}
	assert.Equal(t, quote.OutcomeTimeout, rec.calls["shipstation"])
}

func TestQuote_DerivedQuoteIsNotAskedAgain(t *testing.T) {
	tests := []struct {
		name    string
		derived bool
		calls   int
	}{
		{"derived from quotes", true, 1},
		{"independent quote", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			empty := mock.New("aftership")
			empty.Rates = []shipper.CarrierQuote{}
			empty.Derived = tt.derived

			reg := shipper.NewRegistry()
			reg.Register(empty)
			svc := newService(t, reg, newCatalog())

			result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
			require.NoError(t, err)
			assert.Equal(t, tt.calls, empty.Calls())
			require.Len(t, result.CarrierQuotes, 1)
			assert.Equal(t, quote.PricingSourceRules, result.CarrierQuotes[0].PricingSource)
		})
	}
}

func TestQuote_CallerCancellationDoesNotAbortProviders(t *testing.T) {
	reg := shipper.NewRegistry()
	slow := mock.New("auspost")
	slow.Latency = 50 * time.Millisecond
	reg.Register(slow)

	svc := newService(t, reg, newCatalog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Quote(ctx, request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)
	require.Len(t, result.CarrierQuotes, 2)
	assert.Equal(t, "AUSPOST_API", result.CarrierQuotes[0].PricingSource)
}

func TestQuote_TotalCostIdentity(t *testing.T) {
	reg := shipper.NewRegistry()
	odd := mock.New("shipstation")
	odd.Rates = []shipper.CarrierQuote{
		{Carrier: "UPS", ServiceName: "Ground", PackagingCostAud: 2.5, DeliveryCostAud: 13.37, SurchargesAud: 0.1, TotalCostAud: 99},
	}
	reg.Register(odd)
	reg.Register(absentPrimary().All()[0])

	svc := newService(t, reg, newCatalog())
	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)

	require.Len(t, result.CarrierQuotes, 2)
	for _, q := range result.CarrierQuotes {
		assert.InDelta(t, q.PackagingCostAud+q.DeliveryCostAud+q.SurchargesAud, q.TotalCostAud, 1e-9)
	}
}

func TestQuote_RoundsToCents(t *testing.T) {
	reg := shipper.NewRegistry()
	precise := mock.New("auspost")
	precise.Rates = []shipper.CarrierQuote{
		{Carrier: "AUSPOST", ServiceName: "Parcel Post", PackagingCostAud: 2.505, DeliveryCostAud: 13.3349, SurchargesAud: 0.016},
	}
	reg.Register(precise)

	svc := newService(t, reg, newCatalog())
	result, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.NoError(t, err)

	require.Len(t, result.CarrierQuotes, 1)
	q := result.CarrierQuotes[0]
	assert.Equal(t, 2.51, q.PackagingCostAud)
	assert.Equal(t, 13.33, q.DeliveryCostAud)
	assert.Equal(t, 0.02, q.SurchargesAud)
	assert.Equal(t, 15.86, q.TotalCostAud)
}

func TestQuote_Idempotent(t *testing.T) {
	reg := shipper.NewRegistry()
	reg.Register(mock.New("auspost"))
	reg.Register(mock.New("shippit"))
	svc := newService(t, reg, newCatalog())
	req := request(shipper.ItemSelection{ItemID: "widget", Quantity: 3})

	first, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.CarrierQuotes, second.CarrierQuotes)
}

func TestQuote_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*shipper.ShipmentRequest)
		msg    string
	}{
		{"blank postcode", func(r *shipper.ShipmentRequest) { r.DestinationPostcode = "  " }, "destinationPostcode is required"},
		{"short postcode", func(r *shipper.ShipmentRequest) { r.DestinationPostcode = "200" }, "destinationPostcode must be 4 characters"},
		{"malformed postcode", func(r *shipper.ShipmentRequest) { r.DestinationPostcode = "30a4" }, "destinationPostcode must be digits"},
		{"decimal postcode", func(r *shipper.ShipmentRequest) { r.DestinationPostcode = "1.50" }, "destinationPostcode must be digits"},
		{"signed postcode", func(r *shipper.ShipmentRequest) { r.DestinationPostcode = "-300" }, "destinationPostcode must be digits"},
		{"plus postcode", func(r *shipper.ShipmentRequest) { r.DestinationPostcode = "+300" }, "destinationPostcode must be digits"},
		{"bad country", func(r *shipper.ShipmentRequest) { r.Country = "AUS" }, "country must be 2 characters"},
		{"numeric country", func(r *shipper.ShipmentRequest) { r.Country = "A1" }, "country must be letters"},
		{"no items", func(r *shipper.ShipmentRequest) { r.Items = nil }, "items is required"},
		{"empty items", func(r *shipper.ShipmentRequest) { r.Items = []shipper.ItemSelection{} }, "items must contain at least 1"},
		{"blank packaging", func(r *shipper.ShipmentRequest) { r.PackagingID = " " }, "packagingId is required"},
		{"blank item id", func(r *shipper.ShipmentRequest) { r.Items[0].ItemID = "" }, "items[0].itemId is required"},
		{"zero quantity", func(r *shipper.ShipmentRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity must be greater than 0"},
		{"negative quantity", func(r *shipper.ShipmentRequest) { r.Items[0].Quantity = -1 }, "items[0].quantity must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newCatalog()
			p := mock.New("auspost")
			reg := shipper.NewRegistry()
			reg.Register(p)
			svc := newService(t, reg, cat)

			req := request(shipper.ItemSelection{ItemID: "widget", Quantity: 1})
			tt.mutate(&req)
			_, err := svc.Quote(context.Background(), req)

			require.Error(t, err)
			assert.ErrorIs(t, err, quote.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.msg)
			assert.True(t, quote.IsClientError(err))
			assert.Zero(t, cat.calls, "validation runs before any lookup")
			assert.Zero(t, p.Calls(), "validation runs before any provider")
		})
	}
}

func TestQuote_OriginNotConfigured(t *testing.T) {
	cat := newCatalog()
	cat.origin = nil
	p := mock.New("auspost")
	reg := shipper.NewRegistry()
	reg.Register(p)
	svc := newService(t, reg, cat)

	_, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, quote.ErrOriginNotConfigured))
	assert.False(t, quote.IsClientError(err))
	assert.Zero(t, p.Calls())
}

func TestQuote_UnknownEntities(t *testing.T) {
	svc := newService(t, absentPrimary(), newCatalog())

	req := request(shipper.ItemSelection{ItemID: "widget", Quantity: 1})
	req.PackagingID = "missing-box"
	_, err := svc.Quote(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, quote.ErrUnknownPackaging)
	assert.Contains(t, err.Error(), "missing-box")
	assert.True(t, quote.IsClientError(err))

	req = request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}, shipper.ItemSelection{ItemID: "ghost", Quantity: 1})
	_, err = svc.Quote(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, quote.ErrUnknownItem)
	assert.Contains(t, err.Error(), "ghost")
}

func TestQuote_CatalogFailureIsServerError(t *testing.T) {
	svc := newService(t, absentPrimary(), failingCatalog{})

	_, err := svc.Quote(context.Background(), request(shipper.ItemSelection{ItemID: "widget", Quantity: 1}))
	require.Error(t, err)
	assert.False(t, quote.IsClientError(err))
}

type failingCatalog struct{}

func (failingCatalog) Item(context.Context, string) (shipper.Item, error) {
	return shipper.Item{}, errors.New("disk on fire")
}

func (failingCatalog) Packaging(context.Context, string) (shipper.Packaging, error) {
	return shipper.Packaging{}, errors.New("disk on fire")
}

func (failingCatalog) Origin(context.Context) (shipper.OriginSettings, error) {
	return shipper.OriginSettings{}, errors.New("disk on fire")
}
