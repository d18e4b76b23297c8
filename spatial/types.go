// Copyright 2025 The GeoScope Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// DefaultCellResolution is the H3 resolution used to index resolved places.
const DefaultCellResolution = 7

// ErrInvalidExtent is returned when an extent cannot be decoded into a bounding box.
var ErrInvalidExtent = errors.New("spatial: invalid extent")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return cell, nil
}

// Extent is a bounding box. The JSON form follows Photon: [minLon, maxLat, maxLon, minLat].
type Extent struct {
	MinLng float64
	MaxLat float64
	MaxLng float64
	MinLat float64
}

// ParseExtent decodes a raw extent array. A null or empty value yields (nil, nil).
func ParseExtent(raw json.RawMessage) (*Extent, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var coords []float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtent, err)
	}

	if len(coords) != 4 {
		return nil, fmt.Errorf("%w: expected 4 coordinates, got %d", ErrInvalidExtent, len(coords))
	}

	e := &Extent{MinLng: coords[0], MaxLat: coords[1], MaxLng: coords[2], MinLat: coords[3]}
	if e.MinLat > e.MaxLat {
		return nil, fmt.Errorf("%w: min latitude %f above max latitude %f", ErrInvalidExtent, e.MinLat, e.MaxLat)
	}

	return e, nil
}

// MarshalJSON renders the extent in Photon order.
func (e Extent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{e.MinLng, e.MaxLat, e.MaxLng, e.MinLat})
}

// Center returns the midpoint of the box. Boxes crossing the antimeridian
// (MinLng > MaxLng) are handled by wrapping the longitude.
func (e Extent) Center() Point {
	lng := (e.MinLng + e.MaxLng) / 2
	if e.MinLng > e.MaxLng {
		lng = (e.MinLng + e.MaxLng + 360) / 2
		if lng > 180 {
			lng -= 360
		}
	}

	return Point{Lat: (e.MinLat + e.MaxLat) / 2, Lng: lng}
}

// Contains reports whether p falls inside the box.
func (e Extent) Contains(p Point) bool {
	if p.Lat < e.MinLat || p.Lat > e.MaxLat {
		return false
	}

	if e.MinLng <= e.MaxLng {
		return p.Lng >= e.MinLng && p.Lng <= e.MaxLng
	}

	return p.Lng >= e.MinLng || p.Lng <= e.MaxLng
}

// Diagonal returns the distance in meters between the south-west and north-east corners.
func (e Extent) Diagonal() float64 {
	sw := Point{Lat: e.MinLat, Lng: e.MinLng}
	ne := Point{Lat: e.MaxLat, Lng: e.MaxLng}

	return sw.HaversineDistance(&ne)
}
