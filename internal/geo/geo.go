// Package geo resolves a best-effort location hint from edge-provided
// request headers. The service runs behind a Cloudflare-style proxy that
// stamps geolocation headers on inbound requests; nothing here ever does a
// lookup of its own.
package geo

import (
	"net/http"
	"strings"
)

// Location is the best-effort geolocation of the caller. All fields may be
// empty; Detected reports whether anything usable was present.
type Location struct {
	City           string `json:"city"`
	Region         string `json:"region"`
	Country        string `json:"country"`
	Timezone       string `json:"timezone"`
	LocationString string `json:"locationString"`
	Detected       bool   `json:"detected"`
}

// FromRequest reads the edge geolocation headers off a request.
func FromRequest(r *http.Request) Location {
	loc := Location{
		City:     strings.TrimSpace(r.Header.Get("CF-IPCity")),
		Region:   strings.TrimSpace(r.Header.Get("CF-Region")),
		Country:  strings.TrimSpace(r.Header.Get("CF-IPCountry")),
		Timezone: strings.TrimSpace(r.Header.Get("CF-Timezone")),
	}

	// "XX" is the edge's unknown-country marker.
	if loc.Country == "XX" {
		loc.Country = ""
	}

	loc.LocationString = locationString(loc)
	loc.Detected = loc.City != "" || loc.Region != "" || loc.Country != ""
	return loc
}

// locationString renders the most specific human-readable form available.
func locationString(loc Location) string {
	switch {
	case loc.City != "" && loc.Region != "":
		return loc.City + ", " + loc.Region
	case loc.City != "":
		return loc.City
	case loc.Region != "":
		return loc.Region
	default:
		return loc.Country
	}
}
