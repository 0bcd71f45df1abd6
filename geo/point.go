// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package geo resolves UK postcodes to coordinates and computes
// great-circle distances between them.
package geo

import (
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadiusMiles = 3958.8 // mean radius

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Valid reports whether both coordinates are within range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceMiles calculates the great-circle distance to another point
// in statute miles using the Haversine formula.
func (p Point) DistanceMiles(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// Cell returns the H3 cell index containing the point at the given resolution.
func (p Point) Cell(resolution int) (uint64, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), resolution)
	if err != nil {
		return 0, fmt.Errorf("converting %s to h3 cell at res %d: %w", p, resolution, err)
	}

	return uint64(cell), nil
}
