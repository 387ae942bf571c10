// Package geo places rescue reports on a map. Reports with device coordinates
// are shown where they were reported; the rest are spread over a fixed list of
// reference points chosen by report id, so a report never moves between
// renders.
package geo

import (
	"errors"
	"fmt"
	"strings"

	"rescue-coordination/internal/model"

	"github.com/golang/geo/s2"
)

// DefaultFallback is the built-in reference layout.
var DefaultFallback = []model.MapPosition{
	{Lat: 40.7589, Lng: -73.9851},
	{Lat: 40.7505, Lng: -73.9934},
	{Lat: 40.7614, Lng: -73.9776},
	{Lat: 40.7282, Lng: -73.9942},
	{Lat: 40.7061, Lng: -74.0087},
}

// DefaultCenter is used as the viewport center when nothing is on the map.
var DefaultCenter = model.MapPosition{Lat: 40.7128, Lng: -74.0060}

var ErrNoFallback = errors.New("fallback position list is empty")

type Resolver struct {
	fallback []model.MapPosition
}

// NewResolver copies the fallback list; it must not be empty.
func NewResolver(fallback []model.MapPosition) (*Resolver, error) {
	if len(fallback) == 0 {
		return nil, ErrNoFallback
	}
	list := make([]model.MapPosition, len(fallback))
	copy(list, fallback)
	return &Resolver{fallback: list}, nil
}

// Resolve never fails: missing or unparsable coordinates select a fallback
// point.
func (r *Resolver) Resolve(report *model.RescueReport) model.MapPosition {
	pos, _ := r.resolve(report)
	return pos
}

func (r *Resolver) resolve(report *model.RescueReport) (model.MapPosition, bool) {
	if lat, ok := parseCoordinate(report.Latitude); ok {
		if lng, ok := parseCoordinate(report.Longitude); ok {
			return model.MapPosition{Lat: lat, Lng: lng}, true
		}
	}
	return r.Fallback(report.ID), false
}

// Fallback returns the reference point for a report id.
func (r *Resolver) Fallback(id int64) model.MapPosition {
	n := int64(len(r.fallback))
	idx := id % n
	if idx < 0 {
		idx += n
	}
	return r.fallback[idx]
}

func parseCoordinate(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	return model.ParseCoordinate(*raw)
}

// ParsePositions reads a "lat,lng;lat,lng" list. Every point must be a valid
// latitude/longitude pair.
func ParsePositions(raw string) ([]model.MapPosition, error) {
	var out []model.MapPosition
	for i, chunk := range strings.Split(raw, ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		parts := strings.Split(chunk, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("position %d: expected lat,lng, got %q", i, chunk)
		}
		lat, okLat := parseCoordinate(&parts[0])
		lng, okLng := parseCoordinate(&parts[1])
		if !okLat || !okLng {
			return nil, fmt.Errorf("position %d: %q is not numeric", i, chunk)
		}
		if !s2.LatLngFromDegrees(lat, lng).IsValid() {
			return nil, fmt.Errorf("position %d: %q is out of range", i, chunk)
		}
		out = append(out, model.MapPosition{Lat: lat, Lng: lng})
	}
	if len(out) == 0 {
		return nil, ErrNoFallback
	}
	return out, nil
}

// NewResolverFromConfig uses DefaultFallback when raw is empty.
func NewResolverFromConfig(raw string) (*Resolver, error) {
	if strings.TrimSpace(raw) == "" {
		return NewResolver(DefaultFallback)
	}
	list, err := ParsePositions(raw)
	if err != nil {
		return nil, fmt.Errorf("parse FALLBACK_POSITIONS: %w", err)
	}
	return NewResolver(list)
}
