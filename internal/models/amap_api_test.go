// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package models

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

// Captured from a live v3/place/around response, trimmed. Note rating as a
// string, review_count absent, and photos present.
const samplePOIJSON = `{
	"id": "B000A7BM95",
	"name": "星巴克(中关村欧美汇店)",
	"type": "餐饮服务;咖啡厅;星巴克咖啡",
	"typecode": "050501",
	"address": "丹棱街甲1号欧美汇购物中心1层",
	"location": "116.315842,39.980978",
	"tel": "010-62629225",
	"distance": "482",
	"biz_ext": {
		"rating": "4.6",
		"cost": "36.00"
	},
	"photos": [
		{"title": [], "url": "https://example.invalid/1.jpg"},
		{"title": "门面", "url": "https://example.invalid/2.jpg"}
	]
}`

func TestAmapPOIDecode(t *testing.T) {
	t.Parallel()

	var poi AmapPOI
	if err := json.Unmarshal([]byte(samplePOIJSON), &poi); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if poi.ID != "B000A7BM95" {
		t.Errorf("ID = %q, want B000A7BM95", poi.ID)
	}
	if got := poi.BizExt.Rating.Float(0); got != 4.6 {
		t.Errorf("rating = %v, want 4.6", got)
	}
	if got := poi.BizExt.ReviewCount.Int(0); got != 0 {
		t.Errorf("absent review_count = %d, want 0", got)
	}
	// The empty-array title placeholder must decode, not error.
	if got := string(poi.Photos[0].Title); got != "" {
		t.Errorf("photos[0].title = %q, want empty", got)
	}
	if got := string(poi.Photos[1].Title); got != "门面" {
		t.Errorf("photos[1].title = %q, want 门面", got)
	}
}

func TestFlexString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"quoted string", `"4.6"`, "4.6"},
		{"bare number", `4.6`, "4.6"},
		{"bare int", `127`, "127"},
		{"empty array placeholder", `[]`, ""},
		{"populated array placeholder", `["ignored"]`, ""},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var f FlexString
			if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.raw, err)
			}
			if string(f) != tt.want {
				t.Errorf("got %q, want %q", f, tt.want)
			}
		})
	}
}

func TestFlexStringConversions(t *testing.T) {
	t.Parallel()

	if got := FlexString("4.6").Float(3.5); got != 4.6 {
		t.Errorf("Float parse = %v, want 4.6", got)
	}
	if got := FlexString("").Float(3.5); got != 3.5 {
		t.Errorf("Float empty default = %v, want 3.5", got)
	}
	if got := FlexString("n/a").Float(3.5); got != 3.5 {
		t.Errorf("Float garbage default = %v, want 3.5", got)
	}
	if got := FlexString("842").Int(100); got != 842 {
		t.Errorf("Int parse = %d, want 842", got)
	}
	if got := FlexString("").Int(100); got != 100 {
		t.Errorf("Int empty default = %d, want 100", got)
	}
}

func TestParseAmapLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantLat float64
		wantLon float64
		wantErr bool
	}{
		{"beijing", "116.310905,39.992806", 39.992806, 116.310905, false},
		{"whitespace tolerated", " 116.31 , 39.99 ", 39.99, 116.31, false},
		{"negative coordinates", "-73.985428,40.748817", 40.748817, -73.985428, false},
		{"missing comma", "116.31 39.99", 0, 0, true},
		{"three parts", "116.31,39.99,0", 0, 0, true},
		{"non numeric", "lng,lat", 0, 0, true},
		{"empty", "", 0, 0, true},
		{"latitude out of range", "116.31,91.0", 0, 0, true},
		{"longitude out of range", "181.0,39.99", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pt, err := ParseAmapLocation(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmapLocation(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmapLocation(%q): %v", tt.in, err)
			}
			if math.Abs(pt.Lat-tt.wantLat) > 1e-9 || math.Abs(pt.Lon-tt.wantLon) > 1e-9 {
				t.Errorf("got (%v, %v), want (%v, %v)", pt.Lat, pt.Lon, tt.wantLat, tt.wantLon)
			}
		})
	}
}

func TestToCandidate(t *testing.T) {
	t.Parallel()

	var poi AmapPOI
	if err := json.Unmarshal([]byte(samplePOIJSON), &poi); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	cand, err := poi.ToCandidate()
	if err != nil {
		t.Fatalf("ToCandidate: %v", err)
	}

	if cand.Name != "星巴克(中关村欧美汇店)" {
		t.Errorf("Name = %q", cand.Name)
	}
	if cand.Rating != 4.6 {
		t.Errorf("Rating = %v, want 4.6", cand.Rating)
	}
	if cand.ReviewCount != 0 {
		t.Errorf("ReviewCount = %d, want 0 (absent upstream)", cand.ReviewCount)
	}
	if cand.PhotoCount != 2 {
		t.Errorf("PhotoCount = %d, want 2", cand.PhotoCount)
	}
	if cand.PriceRange != "36.00" {
		t.Errorf("PriceRange = %q, want 36.00", cand.PriceRange)
	}
	// Wire order is lng,lat; Candidate must come out lat/lon.
	if math.Abs(cand.Point.Lat-39.980978) > 1e-9 {
		t.Errorf("Lat = %v, want 39.980978", cand.Point.Lat)
	}
	if cand.DistanceMeters != 0 {
		t.Errorf("DistanceMeters = %v, want 0 before source fills it", cand.DistanceMeters)
	}

	poi.Location = "garbage"
	if _, err := poi.ToCandidate(); err == nil {
		t.Error("ToCandidate with malformed location succeeded, want error")
	}
}

func TestGeocodePoint(t *testing.T) {
	t.Parallel()

	raw := `{
		"status": "1",
		"info": "OK",
		"infocode": "10000",
		"count": "1",
		"geocodes": [{
			"formatted_address": "北京市海淀区北京大学",
			"country": "中国",
			"province": "北京市",
			"citycode": "010",
			"city": "北京市",
			"district": "海淀区",
			"adcode": "110108",
			"location": "116.310905,39.992806",
			"level": "兴趣点"
		}]
	}`

	var resp AmapGeocodeResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if resp.Status != AmapStatusOK {
		t.Fatalf("Status = %q, want %q", resp.Status, AmapStatusOK)
	}
	if len(resp.Geocodes) != 1 {
		t.Fatalf("len(Geocodes) = %d, want 1", len(resp.Geocodes))
	}

	pt, err := resp.Geocodes[0].Point()
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if math.Abs(pt.Lat-39.992806) > 1e-9 || math.Abs(pt.Lon-116.310905) > 1e-9 {
		t.Errorf("point = (%v, %v), want (39.992806, 116.310905)", pt.Lat, pt.Lon)
	}
	if string(resp.Geocodes[0].City) != "北京市" {
		t.Errorf("City = %q, want 北京市", resp.Geocodes[0].City)
	}
}
