// Package sqlstore keeps the catalog in a SQL database through GORM.
// SQLite suits a single workstation; Postgres a shared deployment.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tournevent/postage/internal/catalog"
	"github.com/tournevent/postage/pkg/shipper"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const settingsRowID = 1

type itemRow struct {
	ID              string `gorm:"primaryKey;size:64"`
	Name            string `gorm:"not null;index"`
	Description     string
	UnitWeightGrams int `gorm:"not null"`
	CreatedAt       time.Time
}

func (itemRow) TableName() string { return "items" }

type packagingRow struct {
	ID                    string `gorm:"primaryKey;size:64"`
	Name                  string `gorm:"not null;index"`
	Description           string
	LengthCm              int     `gorm:"not null"`
	HeightCm              int     `gorm:"not null"`
	WidthCm               int     `gorm:"not null"`
	InternalVolumeCubicCm int     `gorm:"not null"`
	PackagingCostAud      float64 `gorm:"not null"`
	CreatedAt             time.Time
}

func (packagingRow) TableName() string { return "packaging" }

type settingsRow struct {
	ID              int `gorm:"primaryKey;autoIncrement:false"`
	Postcode        string
	Suburb          string
	State           string
	Country         string
	ThemePreference string
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false"`
}

func (settingsRow) TableName() string { return "settings" }

// Store is a catalog.Repository backed by GORM.
type Store struct {
	db *gorm.DB
}

// Open connects with the named driver and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("database DSN is required")
		}
		dialector = postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return New(db)
}

// New wraps an open connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	store := &Store{db: db}
	if err := db.AutoMigrate(&itemRow{}, &packagingRow{}, &settingsRow{}); err != nil {
		return nil, multierr.Append(fmt.Errorf("migrating catalog schema: %w", err), store.Close())
	}
	return store, nil
}

// Items returns every item in creation order.
func (s *Store) Items(ctx context.Context) ([]shipper.Item, error) {
	var rows []itemRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	items := make([]shipper.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toItem())
	}
	return items, nil
}

// Item returns the item with id.
func (s *Store) Item(ctx context.Context, id string) (shipper.Item, error) {
	var row itemRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return shipper.Item{}, notFound("item", id, err)
	}
	return row.toItem(), nil
}

// PutItem inserts or replaces an item by id.
func (s *Store) PutItem(ctx context.Context, item shipper.Item) error {
	row := itemRow{
		ID:              item.ID,
		Name:            item.Name,
		Description:     item.Description,
		UnitWeightGrams: item.UnitWeightGrams,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "unit_weight_grams"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteItem removes the item with id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&itemRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting item %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %s: %w", id, shipper.ErrNotFound)
	}
	return nil
}

// Packagings returns every packaging option in creation order.
func (s *Store) Packagings(ctx context.Context) ([]shipper.Packaging, error) {
	var rows []packagingRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing packaging: %w", err)
	}
	out := make([]shipper.Packaging, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toPackaging())
	}
	return out, nil
}

// Packaging returns the packaging with id.
func (s *Store) Packaging(ctx context.Context, id string) (shipper.Packaging, error) {
	var row packagingRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return shipper.Packaging{}, notFound("packaging", id, err)
	}
	return row.toPackaging(), nil
}

// PutPackaging inserts or replaces packaging by id.
func (s *Store) PutPackaging(ctx context.Context, p shipper.Packaging) error {
	row := packagingRow{
		ID:                    p.ID,
		Name:                  p.Name,
		Description:           p.Description,
		LengthCm:              p.LengthCm,
		HeightCm:              p.HeightCm,
		WidthCm:               p.WidthCm,
		InternalVolumeCubicCm: p.InternalVolumeCubicCm,
		PackagingCostAud:      p.PackagingCostAud,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "length_cm", "height_cm", "width_cm",
			"internal_volume_cubic_cm", "packaging_cost_aud",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving packaging %s: %w", p.ID, err)
	}
	return nil
}

// DeletePackaging removes the packaging with id.
func (s *Store) DeletePackaging(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&packagingRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting packaging %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("packaging %s: %w", id, shipper.ErrNotFound)
	}
	return nil
}

// Settings returns the single settings row.
func (s *Store) Settings(ctx context.Context) (shipper.OriginSettings, error) {
	var row settingsRow
	if err := s.db.WithContext(ctx).First(&row, settingsRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shipper.OriginSettings{}, fmt.Errorf("settings: %w", shipper.ErrNotFound)
		}
		return shipper.OriginSettings{}, fmt.Errorf("loading settings: %w", err)
	}
	return shipper.OriginSettings{
		Postcode:        row.Postcode,
		Suburb:          row.Suburb,
		State:           row.State,
		Country:         row.Country,
		ThemePreference: row.ThemePreference,
		UpdatedAt:       row.UpdatedAt.UTC(),
	}, nil
}

// PutSettings replaces the settings row.
func (s *Store) PutSettings(ctx context.Context, o shipper.OriginSettings) error {
	row := settingsRow{
		ID:              settingsRowID,
		Postcode:        o.Postcode,
		Suburb:          o.Suburb,
		State:           o.State,
		Country:         o.Country,
		ThemePreference: o.ThemePreference,
		UpdatedAt:       o.UpdatedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, shipper.ErrNotFound)
	}
	return fmt.Errorf("loading %s %s: %w", kind, id, err)
}

func (r itemRow) toItem() shipper.Item {
	return shipper.Item{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		UnitWeightGrams: r.UnitWeightGrams,
	}
}

func (r packagingRow) toPackaging() shipper.Packaging {
	return shipper.Packaging{
		ID:                    r.ID,
		Name:                  r.Name,
		Description:           r.Description,
		LengthCm:              r.LengthCm,
		HeightCm:              r.HeightCm,
		WidthCm:               r.WidthCm,
		InternalVolumeCubicCm: r.InternalVolumeCubicCm,
		PackagingCostAud:      r.PackagingCostAud,
	}
}

var _ catalog.Repository = (*Store)(nil)
