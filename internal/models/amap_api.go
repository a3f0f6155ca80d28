// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/confluo/internal/geo"
)

// AMap (Gaode) Web Service v3 wire models.
//
// The upstream API has two quirks these models absorb:
//   - numeric values arrive as strings ("status": "1", "rating": "4.6")
//   - missing values inside biz_ext arrive as an empty JSON array, not null
//
// FlexString handles the second quirk so handlers never see a type error for
// a venue that simply has no rating yet.

// AmapStatusOK is the success value of the top-level status field.
const AmapStatusOK = "1"

// AmapInfocodeRateLimit is returned when the per-key QPS budget is exceeded.
// Callers back off and retry instead of treating it as a hard failure.
const AmapInfocodeRateLimit = "10021" // CUQPS_HAS_EXCEEDED_THE_LIMIT

// FlexString is a string that also accepts JSON numbers, null, and AMap's
// empty-array placeholder during unmarshaling.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null", strings.HasPrefix(trimmed, "["):
		*f = ""
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	default:
		// Bare number.
		*f = FlexString(trimmed)
		return nil
	}
}

// Float returns the numeric value of f, or def when empty or unparseable.
func (f FlexString) Float(def float64) float64 {
	if f == "" {
		return def
	}
	v, err := strconv.ParseFloat(string(f), 64)
	if err != nil {
		return def
	}
	return v
}

// Int returns the integer value of f, or def when empty or unparseable.
func (f FlexString) Int(def int) int {
	if f == "" {
		return def
	}
	v, err := strconv.Atoi(string(f))
	if err != nil {
		return def
	}
	return v
}

// AmapGeocodeResponse is the body of GET v3/geocode/geo.
type AmapGeocodeResponse struct {
	Status   string        `json:"status"`
	Info     string        `json:"info"`
	Infocode string        `json:"infocode"`
	Count    FlexString    `json:"count"`
	Geocodes []AmapGeocode `json:"geocodes"`
}

// AmapGeocode is a single geocoding match.
type AmapGeocode struct {
	FormattedAddress string     `json:"formatted_address"`
	Country          FlexString `json:"country"`
	Province         FlexString `json:"province"`
	City             FlexString `json:"city"`
	Citycode         FlexString `json:"citycode"`
	District         FlexString `json:"district"`
	Adcode           FlexString `json:"adcode"`
	Location         string     `json:"location"`
	Level            FlexString `json:"level"`
}

// Point parses the geocode's "lng,lat" location string.
func (g AmapGeocode) Point() (geo.Point, error) {
	return ParseAmapLocation(g.Location)
}

// AmapPlaceResponse is the body of GET v3/place/text and v3/place/around.
type AmapPlaceResponse struct {
	Status   string     `json:"status"`
	Info     string     `json:"info"`
	Infocode string     `json:"infocode"`
	Count    FlexString `json:"count"`
	Pois     []AmapPOI  `json:"pois"`
}

// AmapPOI is a single place-of-interest record.
type AmapPOI struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Typecode FlexString  `json:"typecode"`
	Address  FlexString  `json:"address"`
	Location string      `json:"location"`
	Tel      FlexString  `json:"tel"`
	Distance FlexString  `json:"distance"`
	BizExt   AmapBizExt  `json:"biz_ext"`
	Photos   []AmapPhoto `json:"photos"`
}

// AmapBizExt carries business extension data; every field may be absent.
type AmapBizExt struct {
	Rating      FlexString `json:"rating"`
	Cost        FlexString `json:"cost"`
	ReviewCount FlexString `json:"review_count"`
}

// AmapPhoto is one photo reference attached to a POI.
type AmapPhoto struct {
	Title FlexString `json:"title"`
	URL   string     `json:"url"`
}

// ToCandidate converts the wire record into the internal Candidate model.
// A rating the provider did not report stays 0; the ranking engine maps that
// to its configured neutral default. DistanceMeters is left for the candidate
// source to fill from the request centroid so that both search endpoints
// produce consistent distances.
func (p AmapPOI) ToCandidate() (Candidate, error) {
	pt, err := ParseAmapLocation(p.Location)
	if err != nil {
		return Candidate{}, fmt.Errorf("poi %q: %w", p.ID, err)
	}

	return Candidate{
		ID:          p.ID,
		Name:        p.Name,
		Point:       pt,
		Type:        p.Type,
		Address:     string(p.Address),
		Rating:      p.BizExt.Rating.Float(0),
		ReviewCount: p.BizExt.ReviewCount.Int(0),
		PhotoCount:  len(p.Photos),
		PriceRange:  string(p.BizExt.Cost),
	}, nil
}

// ParseAmapLocation parses AMap's "lng,lat" coordinate encoding. Note the
// longitude-first order, the reverse of the lat/lon order used everywhere
// else in this codebase.
func ParseAmapLocation(s string) (geo.Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("malformed location %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("malformed longitude in %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("malformed latitude in %q: %w", s, err)
	}
	pt := geo.Point{Lat: lat, Lon: lon}
	if !pt.Valid() {
		return geo.Point{}, fmt.Errorf("location %q out of WGS84 bounds", s)
	}
	return pt, nil
}
