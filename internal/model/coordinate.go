package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/shopspring/decimal"
)

// Degrees never need more than a few integer digits, and device precision
// stops well before 30 fractional ones. Larger exponents make the exact
// float conversion expensive, so they are refused up front.
const (
	maxCoordinateLen = 32
	minCoordinateExp = -30
	maxCoordinateExp = 3
)

// ParseCoordinate reads a decimal degree string. It reports false for
// anything that is not a finite, reasonably sized decimal.
func ParseCoordinate(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > maxCoordinateLen {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if exp := d.Exponent(); exp < minCoordinateExp || exp > maxCoordinateExp {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ValidateCoordinates checks the optional latitude and longitude of a draft.
// Each present value must parse and lie within its degree range.
func ValidateCoordinates(lat, lng *string) error {
	var latDeg, lngDeg float64
	if lat != nil {
		v, ok := ParseCoordinate(*lat)
		if !ok {
			return fmt.Errorf("%w: latitude %q is not a decimal number", ErrInvalidDraft, *lat)
		}
		latDeg = v
	}
	if lng != nil {
		v, ok := ParseCoordinate(*lng)
		if !ok {
			return fmt.Errorf("%w: longitude %q is not a decimal number", ErrInvalidDraft, *lng)
		}
		lngDeg = v
	}
	if !s2.LatLngFromDegrees(latDeg, lngDeg).IsValid() {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidDraft)
	}
	return nil
}
