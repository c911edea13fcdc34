// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import "context"

// Result represents a geocoding result from any provider.
type Result struct {
	Latitude    float64
	Longitude   float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}
