// Package quotecache memoizes carrier rates in Redis so repeated quotes for
// the same parcel do not hit carrier APIs again within the TTL.
package quotecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/postage/pkg/shipper"
)

const (
	keyNamespace = "postage:quote"

	// DefaultTTL applies when the configured TTL is not positive.
	DefaultTTL = 5 * time.Minute
)

// Lookup results reported to the Recorder.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
}

// Recorder receives cache lookup metrics.
type Recorder interface {
	RecordCacheLookup(provider, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheLookup(string, string) {}

// Cache wraps providers with a shared Redis store.
type Cache struct {
	store   cmdable
	ttl     time.Duration
	logger  *otelzap.Logger
	metrics Recorder
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics sets the lookup recorder.
func WithMetrics(r Recorder) Option {
	return func(c *Cache) { c.metrics = r }
}

// New creates a cache over store. Pass a *redis.Client in production.
func New(store cmdable, ttl time.Duration, logger *otelzap.Logger, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{store: store, ttl: ttl, logger: logger, metrics: nopRecorder{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Wrap returns p with cached Quote and Quotes.
func (c *Cache) Wrap(p shipper.Provider) shipper.Provider {
	return &cachedProvider{Provider: p, cache: c}
}

// WrapAll wraps every provider in the registry, keeping order.
func (c *Cache) WrapAll(registry *shipper.Registry) {
	for _, p := range registry.All() {
		registry.Register(c.Wrap(p))
	}
}

type cachedProvider struct {
	shipper.Provider
	cache *Cache
}

func (p *cachedProvider) HasCredentials() bool {
	if cr, ok := p.Provider.(shipper.CredentialReporter); ok {
		return cr.HasCredentials()
	}
	return true
}

func (p *cachedProvider) QuoteDerivesFromQuotes() bool {
	d, ok := p.Provider.(shipper.DerivedQuoter)
	return ok && d.QuoteDerivesFromQuotes()
}

func (p *cachedProvider) Quote(ctx context.Context, in *shipper.QuoteInput) (shipper.CarrierQuote, bool) {
	key := Key(p.Name(), "quote", in)
	var cached []shipper.CarrierQuote
	if p.cache.load(ctx, p.Name(), key, &cached) && len(cached) == 1 {
		return cached[0], true
	}

	q, ok := p.Provider.Quote(ctx, in)
	if ok {
		p.cache.save(ctx, key, []shipper.CarrierQuote{q})
	}
	return q, ok
}

func (p *cachedProvider) Quotes(ctx context.Context, in *shipper.QuoteInput) ([]shipper.CarrierQuote, bool) {
	key := Key(p.Name(), "quotes", in)
	var cached []shipper.CarrierQuote
	if p.cache.load(ctx, p.Name(), key, &cached) {
		return cached, true
	}

	quotes, ok := p.Provider.Quotes(ctx, in)
	if ok && len(quotes) > 0 {
		p.cache.save(ctx, key, quotes)
	}
	return quotes, ok
}

func (c *Cache) load(ctx context.Context, provider, key string, v any) bool {
	data, err := c.store.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.metrics.RecordCacheLookup(provider, ResultMiss)
		return false
	case err != nil:
		c.metrics.RecordCacheLookup(provider, ResultError)
		c.logger.Ctx(ctx).Warn("quote cache read failed", zap.String("provider", provider), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.metrics.RecordCacheLookup(provider, ResultError)
		c.logger.Ctx(ctx).Warn("quote cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	c.metrics.RecordCacheLookup(provider, ResultHit)
	return true
}

func (c *Cache) save(ctx context.Context, key string, quotes []shipper.CarrierQuote) {
	data, err := json.Marshal(quotes)
	if err != nil {
		c.logger.Ctx(ctx).Warn("quote cache encode failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Ctx(ctx).Warn("quote cache write failed", zap.String("key", key), zap.Error(err))
	}
}

type fingerprint struct {
	OriginPostcode string `json:"op"`
	OriginSuburb   string `json:"ou"`
	OriginState    string `json:"os"`
	OriginCountry  string `json:"oc"`
	Destination    shipper.Destination
	LengthCm       int     `json:"l"`
	WidthCm        int     `json:"w"`
	HeightCm       int     `json:"h"`
	VolumeCm3      int     `json:"v"`
	PackagingAud   float64 `json:"pc"`
	WeightGrams    int     `json:"g"`
	Pieces         int     `json:"n"`
	Express        bool    `json:"x"`
}

// Key derives the cache key for a provider call. Inputs that price the same
// share a key regardless of which catalog ids they came from.
func Key(provider, mode string, in *shipper.QuoteInput) string {
	fp := fingerprint{
		OriginPostcode: in.Origin.Postcode,
		OriginSuburb:   in.Origin.Suburb,
		OriginState:    in.Origin.State,
		OriginCountry:  in.Origin.Country,
		Destination:    in.Destination(),
		LengthCm:       in.Packaging.LengthCm,
		WidthCm:        in.Packaging.WidthCm,
		HeightCm:       in.Packaging.HeightCm,
		VolumeCm3:      in.Packaging.UsableVolumeCm3(),
		PackagingAud:   in.Packaging.PackagingCostAud,
		WeightGrams:    in.TotalWeightGrams(),
		Pieces:         in.TotalPieces(),
		Express:        in.Request.Express,
	}
	data, _ := json.Marshal(fp)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s:%s", keyNamespace, provider, mode, hex.EncodeToString(sum[:]))
}
