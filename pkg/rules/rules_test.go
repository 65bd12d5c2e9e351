package rules_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/postage/pkg/rules"
)

func TestIsMetro(t *testing.T) {
	tests := []struct {
		postcode int
		want     bool
	}{
		{999, false},
		{1000, true},
		{1935, true},
		{1936, false},
		{2000, true},
		{2080, false},
		{2108, false},
		{3000, true},
		{3004, true},
		{3063, false},
		{3999, false},
		{4000, true},
		{5169, true},
		{7000, false},
		{7999, false},
		{9275, true},
		{9276, false},
		{9999, true},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.postcode), func(t *testing.T) {
			assert.Equal(t, tt.want, rules.IsMetro(tt.postcode))
		})
	}
}

func TestEstimateEta(t *testing.T) {
	tests := []struct {
		name        string
		origin      int
		dest        int
		originState string
		destState   string
		express     bool
		want        rules.Eta
	}{
		{"express same state metro", 3000, 3004, "VIC", "VIC", true, rules.Eta{MinDays: 1, MaxDays: 2}},
		{"express same state one rural", 3000, 3999, "VIC", "VIC", true, rules.Eta{MinDays: 1, MaxDays: 3}},
		{"standard interstate both rural", 7000, 7999, "TAS", "NSW", false, rules.Eta{MinDays: 3, MaxDays: 9}},
		{"standard same state metro", 2000, 2010, "NSW", "NSW", false, rules.Eta{MinDays: 2, MaxDays: 4}},
		{"standard interstate metro", 2000, 3000, "NSW", "VIC", false, rules.Eta{MinDays: 3, MaxDays: 6}},
		{"express interstate both rural", 7000, 7999, "TAS", "NSW", true, rules.Eta{MinDays: 1, MaxDays: 5}},
		{"standard one rural", 2000, 2800, "NSW", "NSW", false, rules.Eta{MinDays: 2, MaxDays: 6}},
		{"state compare is case sensitive", 3000, 3004, "VIC", "vic", true, rules.Eta{MinDays: 1, MaxDays: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.EstimateEta(tt.origin, tt.dest, tt.originState, tt.destState, tt.express)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateEta_Monotonic(t *testing.T) {
	postcodes := []int{2000, 2800, 3000, 3999, 7000}
	states := []string{"NSW", "VIC"}

	for _, o := range postcodes {
		for _, d := range postcodes {
			for _, os := range states {
				for _, ds := range states {
					exp := rules.EstimateEta(o, d, os, ds, true)
					std := rules.EstimateEta(o, d, os, ds, false)
					assert.LessOrEqual(t, exp.MaxDays, std.MaxDays)
					assert.LessOrEqual(t, exp.MinDays, exp.MaxDays)
					assert.LessOrEqual(t, std.MinDays, std.MaxDays)
				}
				same := rules.EstimateEta(o, d, "NSW", "NSW", false)
				inter := rules.EstimateEta(o, d, "NSW", "VIC", false)
				assert.GreaterOrEqual(t, inter.MaxDays, same.MaxDays)
			}
		}
	}
}

func TestEstimateEtaFromStrings(t *testing.T) {
	eta, err := rules.EstimateEtaFromStrings("3000", "3004", "VIC", "VIC", true)
	require.NoError(t, err)
	assert.Equal(t, rules.Eta{MinDays: 1, MaxDays: 2}, eta)

	_, err = rules.EstimateEtaFromStrings("abc", "3004", "VIC", "VIC", true)
	assert.Error(t, err)

	_, err = rules.EstimateEtaFromStrings("3000", " 3004", "VIC", "VIC", true)
	assert.Error(t, err, "whitespace is not trimmed")
}

func TestBracketTable_Price(t *testing.T) {
	table := rules.DefaultBrackets()

	t.Run("weight only standard", func(t *testing.T) {
		price, err := table.Price(0.2, 0, false)
		require.NoError(t, err)
		assert.Equal(t, 9.70, price)
	})

	t.Run("weight only express", func(t *testing.T) {
		price, err := table.Price(0.2, 0, true)
		require.NoError(t, err)
		assert.Equal(t, 12.70, price)
	})

	t.Run("upper bound is inclusive", func(t *testing.T) {
		price, err := table.Price(0.25, 0, false)
		require.NoError(t, err)
		assert.Equal(t, 9.70, price)
	})

	t.Run("volumetric only", func(t *testing.T) {
		price, err := table.Price(0, 2.0, false)
		require.NoError(t, err)
		assert.Equal(t, 19.30, price)
	})

	t.Run("both match takes higher", func(t *testing.T) {
		price, err := table.Price(0.2, 4.0, true)
		require.NoError(t, err)
		assert.Equal(t, 31.80, price)
	})
}

func TestBracketTable_Price_BothAxes(t *testing.T) {
	table := rules.BracketTable{
		{MinKg: 0, MaxKg: 1, Standard: 10.0, Express: 15.0},
		{MinKg: 200, MaxKg: 300, Standard: 20.0, Express: 25.0},
	}
	volumetric := rules.VolumetricWeightKg(1_000_000)
	assert.InDelta(t, 250.0, volumetric, 1e-9)

	price, err := table.Price(0.2, volumetric, false)
	require.NoError(t, err)
	assert.Equal(t, 20.0, price)
}

func TestBracketTable_Price_NoMatch(t *testing.T) {
	table := rules.BracketTable{{MinKg: 2.0, MaxKg: 3.0, Standard: 19.30, Express: 23.80}}

	_, err := table.Price(1.0, 0, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrNoBracketMatch))
}

func TestBracketTable_Price_Property(t *testing.T) {
	table := rules.DefaultBrackets()
	weights := []float64{0, 0.1, 0.25, 0.3, 0.75, 1.0, 2.5, 4.9, 5.0, 5.1, 12}

	for _, w := range weights {
		for _, v := range weights {
			bw, okW := table.Match(w)
			bv, okV := table.Match(v)
			price, err := table.Price(w, v, false)

			switch {
			case okW && okV:
				require.NoError(t, err)
				assert.Equal(t, max(bw.Standard, bv.Standard), price)
			case okW:
				require.NoError(t, err)
				assert.Equal(t, bw.Standard, price)
			case okV:
				require.NoError(t, err)
				assert.Equal(t, bv.Standard, price)
			default:
				assert.ErrorIs(t, err, rules.ErrNoBracketMatch)
			}
		}
	}
}

func TestBracketTable_MatchFirstWins(t *testing.T) {
	table := rules.BracketTable{
		{MinKg: 0, MaxKg: 1, Standard: 1},
		{MinKg: 0, MaxKg: 2, Standard: 2},
	}
	b, ok := table.Match(0.5)
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Standard)
}

func TestParseBrackets(t *testing.T) {
	table, err := rules.ParseBrackets("0:0.25:9.70:12.70, 0.25:0.5:11.15:14.65")
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, rules.WeightBracket{MinKg: 0.25, MaxKg: 0.5, Standard: 11.15, Express: 14.65}, table[1])

	_, err = rules.ParseBrackets("0:0.25:9.70")
	assert.Error(t, err)

	_, err = rules.ParseBrackets("1:0.5:1:1")
	assert.Error(t, err)

	_, err = rules.ParseBrackets("")
	assert.Error(t, err)
}
