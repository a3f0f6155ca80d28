// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package geo provides pure coordinate math for the recommendation pipeline:
// centroid computation over participant locations and great-circle distance.
//
// All coordinates are WGS84 (EPSG:4326) decimal degrees. Functions here are
// side-effect free and safe for concurrent use.
package geo

import (
	"errors"
	"math"
)

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// ErrNoPoints is returned when a computation receives an empty point set.
var ErrNoPoints = errors.New("geo: empty point sequence")

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within WGS84 bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Centroid returns the geographic center of the given points.
//
// For a single point it returns that point. For exactly two points it returns
// the spherical midpoint, which stays correct when the pair straddles a wide
// longitude span. For three or more it returns the arithmetic mean per axis,
// a flat-earth approximation that is accurate at city scale (the scale at
// which meeting venues are searched) and degrades only across hundreds of
// kilometers.
func Centroid(points []Point) (Point, error) {
	switch len(points) {
	case 0:
		return Point{}, ErrNoPoints
	case 1:
		return points[0], nil
	case 2:
		return Midpoint(points[0], points[1]), nil
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(points))
	return Point{Lat: sumLat / n, Lon: sumLon / n}, nil
}

// Midpoint returns the spherical midpoint of the great-circle segment a-b.
func Midpoint(a, b Point) Point {
	lat1 := radians(a.Lat)
	lon1 := radians(a.Lon)
	lat2 := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	bx := math.Cos(lat2) * math.Cos(dLon)
	by := math.Cos(lat2) * math.Sin(dLon)

	lat3 := math.Atan2(
		math.Sin(lat1)+math.Sin(lat2),
		math.Sqrt((math.Cos(lat1)+bx)*(math.Cos(lat1)+bx)+by*by),
	)
	lon3 := lon1 + math.Atan2(by, math.Cos(lat1)+bx)

	return Point{Lat: degrees(lat3), Lon: normalizeLon(degrees(lon3))}
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// BoundingBox returns the min/max corners enclosing the given points.
// Used by tests to assert centroid containment; exported because the
// renderer uses it to frame map links.
func BoundingBox(points []Point) (minPt, maxPt Point, err error) {
	if len(points) == 0 {
		return Point{}, Point{}, ErrNoPoints
	}
	minPt = Point{Lat: math.MaxFloat64, Lon: math.MaxFloat64}
	maxPt = Point{Lat: -math.MaxFloat64, Lon: -math.MaxFloat64}
	for _, p := range points {
		minPt.Lat = math.Min(minPt.Lat, p.Lat)
		minPt.Lon = math.Min(minPt.Lon, p.Lon)
		maxPt.Lat = math.Max(maxPt.Lat, p.Lat)
		maxPt.Lon = math.Max(maxPt.Lon, p.Lon)
	}
	return minPt, maxPt, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// normalizeLon wraps a longitude into [-180, 180].
func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
