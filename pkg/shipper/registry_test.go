package shipper_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/postage/pkg/shipper"
	"github.com/tournevent/postage/pkg/shipper/mock"
)

func TestRegistry_Register(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("test-carrier"))

	got, ok := registry.Get("test-carrier")
	require.True(t, ok, "provider should be registered")
	assert.Equal(t, "test-carrier", got.Name())
}

func TestRegistry_Register_LastWins(t *testing.T) {
	registry := shipper.NewRegistry()

	first := mock.New("auspost")
	second := mock.New("auspost")
	registry.Register(first)
	registry.Register(mock.New("shippit"))
	registry.Register(second)

	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, []string{"auspost", "shippit"}, registry.Names(), "replacement keeps the original slot")

	got, ok := registry.Get("auspost")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := shipper.NewRegistry()

	_, ok := registry.Get("nonexistent")
	assert.False(t, ok)

	_, err := registry.Lookup("nonexistent")
	assert.Error(t, err, "should return error for unregistered provider")
	assert.True(t, errors.Is(err, shipper.ErrProviderNotFound))
}

func TestRegistry_All_PreservesOrder(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("carrier-c"))
	registry.Register(mock.New("carrier-a"))
	registry.Register(mock.New("carrier-b"))

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "carrier-c", all[0].Name())
	assert.Equal(t, "carrier-a", all[1].Name())
	assert.Equal(t, "carrier-b", all[2].Name())
}

func TestRegistry_Enabled(t *testing.T) {
	registry := shipper.NewRegistry()
	registry.Register(mock.New("auspost"))
	registry.Register(mock.New("shippit"))
	registry.Register(mock.New("aramex"))

	t.Run("nil config enables all", func(t *testing.T) {
		assert.Len(t, registry.Enabled(nil), 3)
	})

	t.Run("empty config enables all", func(t *testing.T) {
		assert.Len(t, registry.Enabled(shipper.ProvidersConfig{}), 3)
	})

	t.Run("explicit config filters", func(t *testing.T) {
		cfg := shipper.ProvidersConfig{
			"auspost": {Enabled: true},
			"shippit": {Enabled: false},
		}
		enabled := registry.Enabled(cfg)
		require.Len(t, enabled, 1)
		assert.Equal(t, "auspost", enabled[0].Name())
	})

	t.Run("order follows registration", func(t *testing.T) {
		cfg := shipper.ProvidersConfig{
			"aramex":  {Enabled: true},
			"auspost": {Enabled: true},
		}
		enabled := registry.Enabled(cfg)
		require.Len(t, enabled, 2)
		assert.Equal(t, "auspost", enabled[0].Name())
		assert.Equal(t, "aramex", enabled[1].Name())
	})
}

type keyless struct{ *mock.Client }

func (keyless) HasCredentials() bool { return false }

func TestRegistry_Status(t *testing.T) {
	registry := shipper.NewRegistry()
	registry.Register(mock.New("auspost"))
	registry.Register(keyless{mock.New("aramex")})

	all := registry.Status(nil)
	require.Len(t, all, 2)
	assert.Equal(t, shipper.ProviderStatus{Name: "auspost", Enabled: true, CredentialsPresent: true}, all[0])
	assert.Equal(t, shipper.ProviderStatus{Name: "aramex", Enabled: true, CredentialsPresent: false}, all[1])

	filtered := registry.Status(shipper.ProvidersConfig{"aramex": {Enabled: true}})
	assert.False(t, filtered[0].Enabled)
	assert.True(t, filtered[1].Enabled)
}

func TestRegistry_Count(t *testing.T) {
	registry := shipper.NewRegistry()
	assert.Equal(t, 0, registry.Count())

	registry.Register(mock.New("carrier-a"))
	assert.Equal(t, 1, registry.Count())

	registry.Register(mock.New("carrier-b"))
	assert.Equal(t, 2, registry.Count())
}

func TestQuoteInput_Helpers(t *testing.T) {
	in := &shipper.QuoteInput{
		Request: shipper.ShipmentRequest{DestinationPostcode: "3000", DestinationState: "VIC"},
		Items: []shipper.ResolvedItem{
			{Item: shipper.Item{ID: "a", UnitWeightGrams: 100}, Quantity: 2},
			{Item: shipper.Item{ID: "b", UnitWeightGrams: 250}, Quantity: 1},
		},
	}

	assert.Equal(t, 450, in.TotalWeightGrams())
	assert.InDelta(t, 0.45, in.WeightKg(), 1e-9)
	assert.Equal(t, 3, in.TotalPieces())
	assert.Equal(t, shipper.Destination{Postcode: "3000", State: "VIC", Country: "AU"}, in.Destination())
}

func TestPackaging_UsableVolume(t *testing.T) {
	p := shipper.Packaging{LengthCm: 10, HeightCm: 20, WidthCm: 30}
	assert.Equal(t, 6000, p.UsableVolumeCm3())

	p.InternalVolumeCubicCm = 5000
	assert.Equal(t, 5000, p.UsableVolumeCm3())
}
