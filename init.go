package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tournevent/postage/internal/catalog"
	"github.com/tournevent/postage/internal/catalog/filestore"
	"github.com/tournevent/postage/internal/catalog/sqlstore"
	"github.com/tournevent/postage/internal/config"
	"github.com/tournevent/postage/internal/quotecache"
	"github.com/tournevent/postage/internal/telemetry"
	"github.com/tournevent/postage/pkg/quote"
	"github.com/tournevent/postage/pkg/shipper"
	"github.com/tournevent/postage/pkg/shipper/aftership"
	"github.com/tournevent/postage/pkg/shipper/aramex"
	"github.com/tournevent/postage/pkg/shipper/auspost"
	"github.com/tournevent/postage/pkg/shipper/shipstation"
	"github.com/tournevent/postage/pkg/shipper/shippit"
)

// app is the wired service graph shared by every command.
type app struct {
	cfg       *config.Config
	logger    *otelzap.Logger
	registry  *shipper.Registry
	providers shipper.ProvidersConfig
	catalog   *catalog.Service
	quotes    *quote.Service
	metrics   *telemetry.Metrics
	gatherer  *prometheus.Registry

	closers []func() error
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

// newApp opens the catalog store and builds the carrier registry and quote
// service. Close releases everything it opened.
func newApp(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) (*app, error) {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		providers: cfg.Providers(),
		gatherer:  prometheus.NewRegistry(),
	}
	a.gatherer.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = telemetry.NewMetrics(a.gatherer)

	repo, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, repo.Close)
	a.catalog = catalog.NewService(repo, logger)

	a.registry = initShipperRegistry(cfg, logger, tracer)
	if cfg.RedisURL != "" {
		if err := a.enableCache(ctx); err != nil {
			// quotes still work uncached
			logger.Warn("Quote cache disabled", zap.Error(err))
		}
	}

	a.quotes = quote.New(a.registry, a.catalog, logger,
		quote.WithBrackets(cfg.Brackets()),
		quote.WithProvidersConfig(a.providers),
		quote.WithProviderTimeout(cfg.ProviderTimeout),
		quote.WithMetrics(a.metrics),
		quote.WithTracer(tracer),
	)
	return a, nil
}

func (a *app) enableCache(ctx context.Context) error {
	client, err := quotecache.Connect(ctx, a.cfg.RedisURL)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, client.Close)
	quotecache.New(client, a.cfg.QuoteCacheTTL, a.logger, quotecache.WithMetrics(a.metrics)).WrapAll(a.registry)
	a.logger.Info("Quote cache enabled", zap.Duration("ttl", a.cfg.QuoteCacheTTL))
	return nil
}

// Close releases the store and cache connections.
func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	return err
}

func openStore(cfg *config.Config) (catalog.Repository, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		if cfg.DatabaseDSN == "" {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		return sqlstore.Open(sqlstore.DriverSQLite, cfg.SQLiteDSN())
	case config.StorePostgres:
		return sqlstore.Open(sqlstore.DriverPostgres, cfg.DatabaseDSN)
	default:
		return filestore.New(cfg.DataDir), nil
	}
}

// initShipperRegistry registers every carrier in quote order. Whether a
// carrier is consulted is decided per request from the providers config.
func initShipperRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *shipper.Registry {
	registry := shipper.NewRegistry()

	registry.Register(auspost.New(auspost.Config{
		APIKey:  cfg.AusPostAPIKey,
		BaseURL: cfg.AusPostBaseURL,
		Timeout: cfg.ProviderTimeout,
		UseMock: cfg.AusPostUseMock,
	}, logger, tracer))

	registry.Register(shippit.New(shippit.Config{
		APIKey:     cfg.ShippitAPIKey,
		BaseURL:    cfg.ShippitBaseURL,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: cfg.ShippitMaxRetries,
		UseMock:    cfg.ShippitUseMock,
	}, logger, tracer))

	registry.Register(shipstation.New(shipstation.Config{
		APIKey:     cfg.ShipStationAPIKey,
		BaseURL:    cfg.ShipStationBaseURL,
		CarrierIDs: cfg.ShipStationCarrierIDs,
		Timeout:    cfg.ProviderTimeout,
		UseMock:    cfg.ShipStationUseMock,
	}, logger, tracer))

	registry.Register(aftership.New(aftership.Config{
		APIKey:  cfg.AfterShipAPIKey,
		BaseURL: cfg.AfterShipBaseURL,
		Timeout: cfg.ProviderTimeout,
		UseMock: cfg.AfterShipUseMock,
	}, logger, tracer))

	registry.Register(aramex.New(aramex.Config{
		Username:       cfg.AramexUsername,
		Password:       cfg.AramexPassword,
		AccountNumber:  cfg.AramexAccountNumber,
		AccountPin:     cfg.AramexAccountPin,
		AccountEntity:  cfg.AramexAccountEntity,
		AccountCountry: cfg.AramexAccountCountry,
		ProductGroup:   cfg.AramexProductGroup,
		ProductType:    cfg.AramexProductType,
		PaymentType:    cfg.AramexPaymentType,
		Version:        cfg.AramexVersion,
		Endpoint:       cfg.AramexEndpoint,
		Timeout:        cfg.ProviderTimeout,
		UseMock:        cfg.AramexUseMock,
	}, logger, tracer))

	return registry
}

// logProviderDiagnostics emits one line per carrier so operators can see
// which carriers will be asked and which are missing credentials.
func logProviderDiagnostics(ctx context.Context, logger *otelzap.Logger, registry *shipper.Registry, providers shipper.ProvidersConfig) {
	for _, st := range registry.Status(providers) {
		logger.Ctx(ctx).Info("Provider diagnostics",
			zap.String("provider", st.Name),
			zap.Bool("enabled", st.Enabled),
			zap.Bool("credentials_present", st.CredentialsPresent),
		)
	}
}
