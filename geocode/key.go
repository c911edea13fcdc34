// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves institution/location strings to coordinates,
// preferring a persisted cache over network lookups.
package geocode

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey derives the canonical cache key for a location string:
// trim, lowercase, NFD accent folding, and collapse of internal whitespace.
// Two strings that differ only by case, accents or spacing share a key.
func NormalizeKey(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return strings.Join(strings.Fields(s), " ")
}

// Place is a conservation-place string decomposed into its parts.
type Place struct {
	Museum  string
	City    string
	Country string
}

// ParsePlace decomposes a conservation-place string such as
// "musée > Musée du Louvre, Paris, France" into museum, city and country.
// The classifier prefix before '>' is dropped; missing parts stay empty.
func ParsePlace(s string) Place {
	if i := strings.Index(s, ">"); i >= 0 {
		s = s[i+1:]
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var p Place

	switch {
	case len(parts) >= 3:
		p.Museum, p.City, p.Country = parts[0], parts[1], parts[len(parts)-1]
	case len(parts) == 2:
		p.Museum, p.City = parts[0], parts[1]
	case len(parts) == 1:
		p.Museum = parts[0]
	}

	return p
}

// Key returns the LocationKey for the place: the city when known, otherwise
// the museum name. City-level keys match how the source data is geocoded.
func (p Place) Key() string {
	if p.City != "" {
		return NormalizeKey(p.City)
	}

	return NormalizeKey(p.Museum)
}

// Query returns the free-text lookup string sent to a geocoding provider.
func (p Place) Query() string {
	switch {
	case p.City != "" && p.Country != "":
		return p.City + ", " + p.Country
	case p.City != "":
		return p.City
	default:
		return p.Museum
	}
}
