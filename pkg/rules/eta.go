package rules

import (
	"fmt"
	"strconv"
)

// Eta is an inclusive delivery window in business days.
type Eta struct {
	MinDays int
	MaxDays int
}

// EstimateEta returns the delivery window for a route. Only the upper bound
// is widened for non-metro endpoints.
func EstimateEta(originPostcode, destPostcode int, originState, destState string, express bool) Eta {
	sameState := originState == destState

	var eta Eta
	if express {
		eta.MinDays = 1
		eta.MaxDays = 3
		if sameState {
			eta.MaxDays = 2
		}
	} else {
		eta.MinDays, eta.MaxDays = 3, 6
		if sameState {
			eta.MinDays, eta.MaxDays = 2, 4
		}
	}

	rural := 0
	if !IsMetro(originPostcode) {
		rural++
	}
	if !IsMetro(destPostcode) {
		rural++
	}

	switch {
	case rural == 2 && express:
		eta.MaxDays += 2
	case rural == 2:
		eta.MaxDays += 3
	case rural == 1 && express:
		eta.MaxDays++
	case rural == 1:
		eta.MaxDays += 2
	}

	return eta
}

// EstimateEtaFromStrings parses both postcodes as base-10 integers before
// estimating. Surrounding whitespace is not accepted.
func EstimateEtaFromStrings(originPostcode, destPostcode, originState, destState string, express bool) (Eta, error) {
	origin, err := strconv.Atoi(originPostcode)
	if err != nil {
		return Eta{}, fmt.Errorf("parse origin postcode: %w", err)
	}
	dest, err := strconv.Atoi(destPostcode)
	if err != nil {
		return Eta{}, fmt.Errorf("parse destination postcode: %w", err)
	}
	return EstimateEta(origin, dest, originState, destState, express), nil
}
