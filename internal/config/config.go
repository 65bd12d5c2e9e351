package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"

	"github.com/tournevent/postage/pkg/rules"
	"github.com/tournevent/postage/pkg/shipper"
)

// Store drivers.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	DataDir     string `envconfig:"POSTAGE_DATA_DIR"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`
	DatabaseDSN string `envconfig:"DATABASE_DSN"`

	// Quote engine
	RedisURL        string        `envconfig:"REDIS_URL"`
	QuoteCacheTTL   time.Duration `envconfig:"QUOTE_CACHE_TTL" default:"5m"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
	WeightBrackets  Brackets      `envconfig:"WEIGHT_BRACKETS"`

	// Australia Post
	AusPostAPIKey  string `envconfig:"AUSPOST_API_KEY"`
	AusPostBaseURL string `envconfig:"AUSPOST_BASE_URL"`
	AusPostEnabled *bool  `envconfig:"AUSPOST_ENABLED"`
	AusPostUseMock bool   `envconfig:"AUSPOST_USE_MOCK" default:"false"`

	// Shippit
	ShippitAPIKey     string `envconfig:"SHIPPIT_API_KEY"`
	ShippitBaseURL    string `envconfig:"SHIPPIT_BASE_URL"`
	ShippitMaxRetries int    `envconfig:"SHIPPIT_MAX_RETRIES" default:"2"`
	ShippitEnabled    *bool  `envconfig:"SHIPPIT_ENABLED"`
	ShippitUseMock    bool   `envconfig:"SHIPPIT_USE_MOCK" default:"false"`

	// ShipStation
	ShipStationAPIKey     string   `envconfig:"SHIPSTATION_API_KEY"`
	ShipStationBaseURL    string   `envconfig:"SHIPSTATION_BASE_URL"`
	ShipStationCarrierIDs []string `envconfig:"SHIPSTATION_CARRIER_IDS"`
	ShipStationEnabled    *bool    `envconfig:"SHIPSTATION_ENABLED"`
	ShipStationUseMock    bool     `envconfig:"SHIPSTATION_USE_MOCK" default:"false"`

	// AfterShip
	AfterShipAPIKey  string `envconfig:"AFTERSHIP_API_KEY"`
	AfterShipBaseURL string `envconfig:"AFTERSHIP_BASE_URL"`
	AfterShipEnabled *bool  `envconfig:"AFTERSHIP_ENABLED"`
	AfterShipUseMock bool   `envconfig:"AFTERSHIP_USE_MOCK" default:"false"`

	// Aramex
	AramexUsername       string `envconfig:"ARAMEX_USERNAME"`
	AramexPassword       string `envconfig:"ARAMEX_PASSWORD"`
	AramexAccountNumber  string `envconfig:"ARAMEX_ACCOUNT_NUMBER"`
	AramexAccountPin     string `envconfig:"ARAMEX_ACCOUNT_PIN"`
	AramexAccountEntity  string `envconfig:"ARAMEX_ACCOUNT_ENTITY"`
	AramexAccountCountry string `envconfig:"ARAMEX_ACCOUNT_COUNTRY" default:"AU"`
	AramexProductGroup   string `envconfig:"ARAMEX_PRODUCT_GROUP" default:"EXP"`
	AramexProductType    string `envconfig:"ARAMEX_PRODUCT_TYPE" default:"PPX"`
	AramexPaymentType    string `envconfig:"ARAMEX_PAYMENT_TYPE" default:"P"`
	AramexVersion        string `envconfig:"ARAMEX_VERSION" default:"v1.0"`
	AramexEndpoint       string `envconfig:"ARAMEX_ENDPOINT"`
	AramexEnabled        *bool  `envconfig:"ARAMEX_ENABLED"`
	AramexUseMock        bool   `envconfig:"ARAMEX_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"postage-quote"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Brackets decodes WEIGHT_BRACKETS ("min:max:std:exp,...").
type Brackets rules.BracketTable

// Decode implements envconfig.Decoder.
func (b *Brackets) Decode(value string) error {
	t, err := rules.ParseBrackets(value)
	if err != nil {
		return err
	}
	*b = Brackets(t)
	return nil
}

// Load reads a .env file from the working directory if present, then
// configuration from environment variables. Variables already set win over
// the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".postage-comparator")
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Port <= 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.StoreDriver {
	case StoreFile:
	case StoreSQLite, StorePostgres:
		if c.StoreDriver == StorePostgres && c.DatabaseDSN == "" {
			err = multierr.Append(err, errors.New("DATABASE_DSN is required for the postgres store"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("STORE_DRIVER %q is not one of file, sqlite, postgres", c.StoreDriver))
	}
	if c.ProviderTimeout <= 0 {
		err = multierr.Append(err, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if c.RedisURL != "" && c.QuoteCacheTTL <= 0 {
		err = multierr.Append(err, errors.New("QUOTE_CACHE_TTL must be positive when REDIS_URL is set"))
	}
	if len(c.WeightBrackets) > 0 {
		if verr := rules.BracketTable(c.WeightBrackets).Validate(); verr != nil {
			err = multierr.Append(err, fmt.Errorf("WEIGHT_BRACKETS: %w", verr))
		}
	}
	return err
}

// Brackets returns the configured bracket table or the built-in one.
func (c *Config) Brackets() rules.BracketTable {
	if len(c.WeightBrackets) == 0 {
		return rules.DefaultBrackets()
	}
	return rules.BracketTable(c.WeightBrackets)
}

// SQLiteDSN is the DSN used by the sqlite store when DATABASE_DSN is unset.
func (c *Config) SQLiteDSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return filepath.Join(c.DataDir, "postage.db")
}

// Providers builds the carrier switches. Only carriers whose *_ENABLED
// variable is set appear; an empty map enables every carrier.
func (c *Config) Providers() shipper.ProvidersConfig {
	cfg := shipper.ProvidersConfig{}
	for name, v := range map[string]*bool{
		"auspost":     c.AusPostEnabled,
		"shippit":     c.ShippitEnabled,
		"shipstation": c.ShipStationEnabled,
		"aftership":   c.AfterShipEnabled,
		"aramex":      c.AramexEnabled,
	} {
		if v != nil {
			cfg[name] = shipper.ProviderSetting{Enabled: *v}
		}
	}
	return cfg
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("store.driver", c.StoreDriver),
		attribute.Bool("quote.cache", c.RedisURL != ""),
	}
}
