package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/postage/internal/catalog"
	"github.com/tournevent/postage/internal/catalog/sqlstore"
	"github.com/tournevent/postage/pkg/shipper"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(sqlstore.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := sqlstore.Open("mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")

	_, err = sqlstore.Open(sqlstore.DriverPostgres, "")
	require.Error(t, err)
}

func TestStore_Items(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Ping(ctx))

	_, err := s.Item(ctx, "missing")
	assert.ErrorIs(t, err, shipper.ErrNotFound)

	require.NoError(t, s.PutItem(ctx, shipper.Item{ID: "a", Name: "Mug", UnitWeightGrams: 300}))
	require.NoError(t, s.PutItem(ctx, shipper.Item{ID: "a", Name: "Mug", Description: "blue", UnitWeightGrams: 320}))

	got, err := s.Item(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, shipper.Item{ID: "a", Name: "Mug", Description: "blue", UnitWeightGrams: 320}, got)

	items, err := s.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, s.DeleteItem(ctx, "a"))
	assert.ErrorIs(t, s.DeleteItem(ctx, "a"), shipper.ErrNotFound)
}

func TestStore_Packaging(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	box := shipper.Packaging{ID: "p", Name: "Box", LengthCm: 20, HeightCm: 10, WidthCm: 15, InternalVolumeCubicCm: 3000, PackagingCostAud: 1.5}
	require.NoError(t, s.PutPackaging(ctx, box))

	got, err := s.Packaging(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, box, got)

	box.PackagingCostAud = 2
	require.NoError(t, s.PutPackaging(ctx, box))
	all, err := s.Packagings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2.0, all[0].PackagingCostAud)

	require.NoError(t, s.DeletePackaging(ctx, "p"))
	_, err = s.Packaging(ctx, "p")
	assert.ErrorIs(t, err, shipper.ErrNotFound)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Settings(ctx)
	assert.ErrorIs(t, err, shipper.ErrNotFound)

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.PutSettings(ctx, shipper.OriginSettings{Postcode: "3000", Country: "AU", UpdatedAt: at}))
	require.NoError(t, s.PutSettings(ctx, shipper.OriginSettings{Postcode: "2000", Country: "AU", ThemePreference: "sepia", UpdatedAt: at}))

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2000", got.Postcode)
	assert.Equal(t, "sepia", got.ThemePreference)
	assert.True(t, at.Equal(got.UpdatedAt))
}

func TestStore_WithCatalogService(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(openStore(t), otelzap.New(zap.NewNop()))

	item, err := svc.CreateItem(ctx, shipper.Item{Name: "Candle", UnitWeightGrams: 450})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, shipper.Item{Name: "Candle", UnitWeightGrams: 1})
	assert.ErrorIs(t, err, catalog.ErrDuplicateName)

	got, err := svc.Item(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 450, got.UnitWeightGrams)
}
