// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

/*
Package models defines data structures for the Confluo application.

This package contains all data models used throughout the application, including
the inbound request payload, AMap Web Service response models, and internal
data transfer objects. It serves as the single source of truth for data
structure definitions.

Key Components:

  - RecommendationRequest: Inbound request (locations, keyword, requirements)
  - Candidate / RankedCandidate: Venue models before and after scoring
  - ScoreBreakdown: Per-component scoring detail attached to every ranked venue
  - AMap Models: Wire structs for the geocoding and place-search endpoints

Model Categories:

1. Domain Models:
  - ResolvedAddress: A user location after alias expansion and geocoding
  - Candidate: A venue as returned by place search, immutable once fetched
  - RankedCandidate: Candidate plus scores, final rank, and reason strings
  - RecommendationResult: Full pipeline output (venues, centroid, timings)

2. Request Models:
  - RecommendationRequest: Validated inbound payload, normalized before use

3. AMap Wire Models:
  - AmapGeocodeResponse: v3/geocode/geo body
  - AmapPlaceResponse: v3/place/text and v3/place/around body
  - FlexString: Absorbs the provider's string-typed numerics and
    empty-array-for-missing placeholders

Usage Example - Wire Conversion:

	import "github.com/tomtom215/confluo/internal/models"

	var resp models.AmapPlaceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
	    return err
	}
	for _, poi := range resp.Pois {
	    cand, err := poi.ToCandidate()
	    if err != nil {
	        continue // skip malformed records, keep the batch
	    }
	    out = append(out, cand)
	}

Coordinate Convention:

All internal models order coordinates lat/lon (geo.Point). The AMap wire
format is lng,lat; ParseAmapLocation is the only place that conversion
happens.

Thread Safety:

All models are:
  - Immutable after creation (pass-by-value or pointers)
  - Safe for concurrent read access
  - No internal mutexes needed (data structures only)

JSON Marshaling:

All models support JSON serialization:
  - Struct tags for field naming (snake_case throughout)
  - Omitempty tags for optional fields
  - Time.Time uses RFC3339 format
  - FlexString custom unmarshaler for AMap's irregular typing

See Also:

  - internal/amap: HTTP client decoding the AMap models
  - internal/rank: Scoring engine producing RankedCandidate
  - internal/api: API handlers returning these models
*/
package models
