package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tournevent/postage/internal/catalog/filestore"
	"github.com/tournevent/postage/pkg/shipper"
)

func TestStore_EmptyDir(t *testing.T) {
	ctx := context.Background()
	s := filestore.New(filepath.Join(t.TempDir(), "not-yet"))

	items, err := s.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.Settings(ctx)
	assert.ErrorIs(t, err, shipper.ErrNotFound)

	assert.ErrorIs(t, s.DeleteItem(ctx, "x"), shipper.ErrNotFound)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := filestore.New(dir)
	require.NoError(t, s.PutItem(ctx, shipper.Item{ID: "a", Name: "Mug", UnitWeightGrams: 300}))
	require.NoError(t, s.PutItem(ctx, shipper.Item{ID: "b", Name: "Plate", UnitWeightGrams: 500}))
	require.NoError(t, s.PutItem(ctx, shipper.Item{ID: "a", Name: "Mug", UnitWeightGrams: 320}))
	require.NoError(t, s.PutPackaging(ctx, shipper.Packaging{ID: "p", Name: "Box", LengthCm: 1, HeightCm: 1, WidthCm: 1, PackagingCostAud: 1}))
	require.NoError(t, s.PutSettings(ctx, shipper.OriginSettings{Postcode: "3000"}))

	for _, name := range []string{"items.json", "packagings.json", "settings.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	reopened := filestore.New(dir)
	items, err := reopened.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID, "upsert keeps position")
	assert.Equal(t, 320, items[0].UnitWeightGrams)

	p, err := reopened.Packaging(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "Box", p.Name)

	settings, err := reopened.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3000", settings.Postcode)

	require.NoError(t, reopened.DeletePackaging(ctx, "p"))
	_, err = reopened.Packaging(ctx, "p")
	assert.ErrorIs(t, err, shipper.ErrNotFound)
	require.NoError(t, reopened.Close())
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.json"), []byte("{not json"), 0o644))

	_, err := filestore.New(dir).Items(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode items.json")
}
