package model

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCoordinate(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{raw: "40.7128", want: 40.7128, ok: true},
		{raw: " -74.0060 ", want: -74.006, ok: true},
		{raw: "4.07e1", want: 40.7, ok: true},
		{raw: "0.000000000000000000000000000001", want: 1e-30, ok: true},
		{raw: ""},
		{raw: "north"},
		{raw: "NaN"},
		{raw: "1e20000000"},
		{raw: "1e-20000000"},
		{raw: "1e4"},
		{raw: "1." + strings.Repeat("0", 40)},
	}
	for _, tc := range cases {
		got, ok := ParseCoordinate(tc.raw)
		if ok != tc.ok {
			t.Errorf("ParseCoordinate(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseCoordinate(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestDraftValidateCoordinates(t *testing.T) {
	s := func(v string) *string { return &v }

	cases := []struct {
		name     string
		lat, lng *string
		valid    bool
	}{
		{name: "absent", valid: true},
		{name: "both", lat: s("40.71"), lng: s("-74.00"), valid: true},
		{name: "latitude only", lat: s("40.71"), valid: true},
		{name: "poles and antimeridian", lat: s("-90"), lng: s("180"), valid: true},
		{name: "not a number", lat: s("north"), lng: s("1")},
		{name: "huge exponent", lat: s("1e20000000"), lng: s("1")},
		{name: "latitude out of range", lat: s("91"), lng: s("0")},
		{name: "longitude out of range", lat: s("0"), lng: s("-180.5")},
	}
	for _, tc := range cases {
		err := ReportDraft{Description: "dog", Latitude: tc.lat, Longitude: tc.lng}.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidDraft) {
			t.Errorf("%s: error = %v, want ErrInvalidDraft", tc.name, err)
		}
	}
}
