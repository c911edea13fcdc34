// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog loads museum-artifact records from CSV exports and
// persists them to DuckDB.
package catalog

import (
	"errors"

	"github.com/artvision/artvision/geocode"
	"github.com/artvision/artvision/spatial"
)

// Artwork is one museum-artifact record.
type Artwork struct {
	// Ref is the institutional identifier of the artifact.
	Ref string
	// Source tags the file the record was imported from. Re-importing a
	// source replaces its records.
	Source   string
	RecordID int

	Title       string
	Artist      string
	Year        int // 0 means unknown
	Domain      string
	Description string

	// Conservation is the raw conservation-place string from the export.
	Conservation string
	// Museum, City and Country are parsed out of Conservation.
	Museum  string
	City    string
	Country string
	// LocationKey is the normalized geocoding cache key for this record.
	LocationKey string

	Point *spatial.Point
	Cells spatial.Cells
}

// Place reassembles the parsed conservation-place parts.
func (a *Artwork) Place() geocode.Place {
	return geocode.Place{Museum: a.Museum, City: a.City, Country: a.Country}
}

// Validate reports whether the record can be stored.
func (a *Artwork) Validate() error {
	if a.Ref == "" {
		return errors.New("missing identifier")
	}

	return nil
}

// Century returns the 1-based century of the artwork's year, or 0 when
// the year is unknown.
func (a *Artwork) Century() int {
	if a.Year <= 0 {
		return 0
	}

	return (a.Year + 99) / 100
}
