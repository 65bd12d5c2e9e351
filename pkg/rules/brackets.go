package rules

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VolumetricDensityKgPer1000Cm3 converts usable packaging volume to a
// weight equivalent.
const VolumetricDensityKgPer1000Cm3 = 0.25

// ErrNoBracketMatch is returned when neither the actual nor the volumetric
// weight falls inside any configured bracket.
var ErrNoBracketMatch = errors.New("no weight bracket matches shipment")

// WeightBracket prices weights in the interval (MinKg, MaxKg].
type WeightBracket struct {
	MinKg    float64
	MaxKg    float64
	Standard float64
	Express  float64
}

// Contains reports whether kg is inside (MinKg, MaxKg].
func (b WeightBracket) Contains(kg float64) bool {
	return kg > b.MinKg && kg <= b.MaxKg
}

// PriceFor returns the bracket price for the given service level.
func (b WeightBracket) PriceFor(express bool) float64 {
	if express {
		return b.Express
	}
	return b.Standard
}

// BracketTable is an ordered list of weight brackets. The first bracket
// containing a weight wins.
type BracketTable []WeightBracket

// DefaultBrackets is the domestic parcel table used when none is configured.
func DefaultBrackets() BracketTable {
	return BracketTable{
		{MinKg: 0, MaxKg: 0.25, Standard: 9.70, Express: 12.70},
		{MinKg: 0.25, MaxKg: 0.5, Standard: 11.15, Express: 14.65},
		{MinKg: 0.5, MaxKg: 1.0, Standard: 15.25, Express: 19.25},
		{MinKg: 1.0, MaxKg: 3.0, Standard: 19.30, Express: 23.80},
		{MinKg: 3.0, MaxKg: 5.0, Standard: 23.30, Express: 31.80},
	}
}

// Match returns the first bracket containing kg.
func (t BracketTable) Match(kg float64) (WeightBracket, bool) {
	for _, b := range t {
		if b.Contains(kg) {
			return b, true
		}
	}
	return WeightBracket{}, false
}

// Price resolves the delivery cost for a shipment. When both weights match a
// bracket the higher of the two prices is charged.
func (t BracketTable) Price(weightKg, volumetricKg float64, express bool) (float64, error) {
	byWeight, okWeight := t.Match(weightKg)
	byVolume, okVolume := t.Match(volumetricKg)

	switch {
	case okWeight && okVolume:
		return math.Max(byWeight.PriceFor(express), byVolume.PriceFor(express)), nil
	case okWeight:
		return byWeight.PriceFor(express), nil
	case okVolume:
		return byVolume.PriceFor(express), nil
	default:
		return 0, fmt.Errorf("%w: weight %.3fkg, volumetric %.3fkg", ErrNoBracketMatch, weightKg, volumetricKg)
	}
}

// Validate checks that every bracket is a non-empty, non-negative interval
// with non-negative prices.
func (t BracketTable) Validate() error {
	if len(t) == 0 {
		return errors.New("bracket table is empty")
	}
	for i, b := range t {
		if b.MinKg < 0 || b.MaxKg <= b.MinKg {
			return fmt.Errorf("bracket %d: invalid interval (%g, %g]", i, b.MinKg, b.MaxKg)
		}
		if b.Standard < 0 || b.Express < 0 {
			return fmt.Errorf("bracket %d: negative price", i)
		}
	}
	return nil
}

// VolumetricWeightKg converts a volume in cubic centimetres to kilograms.
func VolumetricWeightKg(volumeCm3 float64) float64 {
	return volumeCm3 / 1000 * VolumetricDensityKgPer1000Cm3
}

// ParseBrackets reads a table written as "min:max:standard:express" entries
// separated by commas, e.g. "0:0.25:9.70:12.70,0.25:0.5:11.15:14.65".
func ParseBrackets(s string) (BracketTable, error) {
	var table BracketTable
	for i, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("bracket %d: want min:max:standard:express, got %q", i, entry)
		}
		var vals [4]float64
		for j, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("bracket %d: %w", i, err)
			}
			vals[j] = v
		}
		table = append(table, WeightBracket{MinKg: vals[0], MaxKg: vals[1], Standard: vals[2], Express: vals[3]})
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
