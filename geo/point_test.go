// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"math"
	"testing"
)

var (
	// SW1A 1AA, Westminster.
	westminster = Point{Lat: 51.501009, Lng: -0.141588}
	// SE10 8QY, Greenwich.
	greenwich = Point{Lat: 51.476852, Lng: -0.010677}
	// M1 1AE, central Manchester.
	manchester = Point{Lat: 53.477925, Lng: -2.233557}
)

func TestDistanceMilesSymmetric(t *testing.T) {
	pairs := []struct{ a, b Point }{
		{westminster, greenwich},
		{westminster, manchester},
		{greenwich, manchester},
		{Point{Lat: -33.9, Lng: 151.2}, Point{Lat: 51.5, Lng: -0.1}},
	}

	for _, tc := range pairs {
		ab := tc.a.DistanceMiles(tc.b)
		ba := tc.b.DistanceMiles(tc.a)

		if ab != ba {
			t.Errorf("distance not symmetric: %f vs %f", ab, ba)
		}

		if ab < 0 {
			t.Errorf("negative distance %f", ab)
		}
	}
}

func TestDistanceMilesZero(t *testing.T) {
	if d := westminster.DistanceMiles(westminster); d != 0 {
		t.Errorf("distance to self: want 0, got %f", d)
	}
}

func TestDistanceMilesKnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"Westminster to Greenwich", westminster, greenwich, 5.9},
		{"Westminster to Manchester", westminster, manchester, 163},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.a.DistanceMiles(tc.b)
			if math.Abs(got-tc.want) > tc.want*0.05 {
				t.Errorf("want ≈%f miles, got %f", tc.want, got)
			}
		})
	}
}

func TestPointValid(t *testing.T) {
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{Lat: 0, Lng: 0}, true},
		{Point{Lat: 90, Lng: 180}, true},
		{Point{Lat: -90, Lng: -180}, true},
		{Point{Lat: 91, Lng: 0}, false},
		{Point{Lat: 0, Lng: -181}, false},
	}

	for _, tc := range tests {
		if got := tc.p.Valid(); got != tc.want {
			t.Errorf("Valid(%s) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestPointCell(t *testing.T) {
	coarse, err := westminster.Cell(5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	fine, err := westminster.Cell(7)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if coarse == 0 || fine == 0 {
		t.Fatalf("zero cell index: res5=%d res7=%d", coarse, fine)
	}

	if coarse == fine {
		t.Fatalf("different resolutions yielded the same cell %d", coarse)
	}
}
