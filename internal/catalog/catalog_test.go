package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/postage/internal/catalog"
	"github.com/tournevent/postage/internal/catalog/filestore"
	"github.com/tournevent/postage/pkg/shipper"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	return catalog.NewService(filestore.New(t.TempDir()), otelzap.New(zap.NewNop()))
}

func TestItems_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.CreateItem(ctx, shipper.Item{Name: "  Mug ", UnitWeightGrams: 350})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Mug", created.Name)

	got, err := svc.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := svc.UpdateItem(ctx, created.ID, shipper.Item{Description: "ceramic"})
	require.NoError(t, err)
	assert.Equal(t, "Mug", updated.Name)
	assert.Equal(t, "ceramic", updated.Description)
	assert.Equal(t, 350, updated.UnitWeightGrams)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, svc.DeleteItem(ctx, created.ID))
	require.NoError(t, svc.DeleteItem(ctx, created.ID), "deleting twice is not an error")

	_, err = svc.GetItem(ctx, created.ID)
	assert.ErrorIs(t, err, shipper.ErrNotFound)
}

func TestItems_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateItem(ctx, shipper.Item{Name: " ", UnitWeightGrams: 10})
	require.Error(t, err)
	assert.True(t, catalog.IsValidation(err))
	assert.Contains(t, err.Error(), "name is required")

	_, err = svc.CreateItem(ctx, shipper.Item{Name: "Zero", UnitWeightGrams: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrValidation)
	assert.Contains(t, err.Error(), "unitWeightGrams")
}

func TestItems_DuplicateName(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a, err := svc.CreateItem(ctx, shipper.Item{Name: "Mug", UnitWeightGrams: 350})
	require.NoError(t, err)
	b, err := svc.CreateItem(ctx, shipper.Item{Name: "Plate", UnitWeightGrams: 500})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, shipper.Item{Name: "Mug", UnitWeightGrams: 1})
	assert.ErrorIs(t, err, catalog.ErrDuplicateName)
	assert.True(t, catalog.IsValidation(err))

	_, err = svc.UpdateItem(ctx, b.ID, shipper.Item{Name: "Mug"})
	assert.ErrorIs(t, err, catalog.ErrDuplicateName)

	// renaming to its own name is fine
	_, err = svc.UpdateItem(ctx, a.ID, shipper.Item{Name: "Mug", UnitWeightGrams: 400})
	require.NoError(t, err)
}

func TestUpdateItem_Unknown(t *testing.T) {
	_, err := newService(t).UpdateItem(context.Background(), "missing", shipper.Item{Name: "x"})
	assert.ErrorIs(t, err, shipper.ErrNotFound)
}

func TestPackaging_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	box, err := svc.CreatePackaging(ctx, shipper.Packaging{
		Name: "Small box", LengthCm: 20, HeightCm: 10, WidthCm: 15, PackagingCostAud: 1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 3000, box.InternalVolumeCubicCm)

	satchel, err := svc.CreatePackaging(ctx, shipper.Packaging{
		Name: "Satchel", LengthCm: 30, HeightCm: 5, WidthCm: 20, InternalVolumeCubicCm: 2500, PackagingCostAud: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, 2500, satchel.InternalVolumeCubicCm)

	updated, err := svc.UpdatePackaging(ctx, box.ID, shipper.Packaging{PackagingCostAud: 2.25})
	require.NoError(t, err)
	assert.Equal(t, 2.25, updated.PackagingCostAud)
	assert.Equal(t, 20, updated.LengthCm)

	_, err = svc.UpdatePackaging(ctx, box.ID, shipper.Packaging{Name: "Satchel"})
	assert.ErrorIs(t, err, catalog.ErrDuplicateName)

	list, err := svc.ListPackaging(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.DeletePackaging(ctx, box.ID))
	_, err = svc.GetPackaging(ctx, box.ID)
	assert.ErrorIs(t, err, shipper.ErrNotFound)
}

func TestPackaging_Validation(t *testing.T) {
	svc := newService(t)
	_, err := svc.CreatePackaging(context.Background(), shipper.Packaging{
		Name: "Free box", LengthCm: 10, HeightCm: 10, WidthCm: 10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrValidation)
	assert.Contains(t, err.Error(), "packagingCostAud")
}

func TestOrigin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.GetOrigin(ctx)
	assert.ErrorIs(t, err, shipper.ErrNotFound)

	// theme can be stored before the origin
	themed, err := svc.SetTheme(ctx, " Dark ")
	require.NoError(t, err)
	assert.Equal(t, "dark", themed.ThemePreference)

	_, err = svc.Origin(ctx)
	assert.ErrorIs(t, err, shipper.ErrNotFound, "theme-only settings are not an origin")

	saved, err := svc.SaveOrigin(ctx, shipper.OriginSettings{Postcode: "3000", Suburb: "Melbourne", State: "VIC", Country: "au"})
	require.NoError(t, err)
	assert.Equal(t, "AU", saved.Country)
	assert.Equal(t, "dark", saved.ThemePreference, "blank theme keeps the stored one")
	assert.False(t, saved.UpdatedAt.IsZero())

	origin, err := svc.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3000", origin.Postcode)

	_, err = svc.SaveOrigin(ctx, shipper.OriginSettings{Postcode: "30"})
	assert.ErrorIs(t, err, catalog.ErrValidation)

	_, err = svc.SetTheme(ctx, "neon")
	assert.ErrorIs(t, err, catalog.ErrValidation)
}

func TestOrigin_DefaultsCountry(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.SaveOrigin(ctx, shipper.OriginSettings{Postcode: "2000"})
	require.NoError(t, err)

	origin, err := svc.Origin(ctx)
	require.NoError(t, err)
	assert.Equal(t, shipper.DefaultCountry, origin.Country)
}

func TestOrigin_PostcodeMustBeDigits(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.SaveOrigin(ctx, shipper.OriginSettings{Postcode: "3000"})
	require.NoError(t, err)

	for _, postcode := range []string{"1.50", "-300", "+300", "30a0"} {
		t.Run(postcode, func(t *testing.T) {
			_, err := svc.SaveOrigin(ctx, shipper.OriginSettings{Postcode: postcode})
			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrValidation)
			assert.Contains(t, err.Error(), "postcode must be digits")

			origin, err := svc.Origin(ctx)
			require.NoError(t, err)
			assert.Equal(t, "3000", origin.Postcode, "rejected postcode is not stored")
		})
	}
}
