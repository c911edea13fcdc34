// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/artvision/artvision/geocode"
)

// ArtworkProperty identifies a logical field of an artwork record.
type ArtworkProperty int

const (
	propRef ArtworkProperty = iota
	propTitle
	propArtist
	propYear
	propDomain
	propPlace
	propDescription
	// used to skip columns we don't model.
	propIgnore
)

// Museum exports never agree on column naming: accents, capitalization
// and wording drift between institutions. This maps the phrases we have
// seen to the concepts.
func artworkPropertyFromHeader(s string) ArtworkProperty {
	ns := geocode.NormalizeKey(s)

	for prop, names := range map[ArtworkProperty][]string{
		propRef: {
			"Identifiant",
			"Numéro d'inventaire",
			"N° Inventaire",
			"Référence",
		},
		propTitle: {
			"Titre ou désignation",
			"Titre",
			"Dénomination",
		},
		propArtist: {
			"Artiste",
			"Auteur",
			"Auteur / exécutant",
		},
		propYear: {
			"Date de l'œuvre ou de l'artiste",
			"Millésime de création",
			"Datation",
		},
		propDomain: {
			"Domaine",
			"Technique",
		},
		propPlace: {
			"Lieu de conservation",
			"Propriétaire",
			"Localisation",
		},
		propDescription: {
			"Description",
			"Précisions",
		},
	} {
		for _, name := range names {
			if ns == geocode.NormalizeKey(name) {
				return prop
			}
		}
	}

	return propIgnore
}

// ImportMetrics tracks statistics about a CSV import.
type ImportMetrics struct {
	RowsRead    int
	RowsStored  int
	RowsSkipped int
	BadYears    int
}

// Merge combines two ImportMetrics.
func (m *ImportMetrics) Merge(o *ImportMetrics) *ImportMetrics {
	m.RowsRead += o.RowsRead
	m.RowsStored += o.RowsStored
	m.RowsSkipped += o.RowsSkipped
	m.BadYears += o.BadYears

	return m
}

// ReadArtworks parses a semicolon-separated museum export. Rows missing
// the identifier are skipped and counted, not fatal. Unknown columns are
// ignored.
func ReadArtworks(r io.Reader, source string) ([]*Artwork, *ImportMetrics, error) {
	metrics := &ImportMetrics{}

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, metrics, fmt.Errorf("reading CSV header: %w", err)
	}

	columnMap := make(map[int]ArtworkProperty, len(header))
	for i, name := range header {
		columnMap[i] = artworkPropertyFromHeader(name)
	}

	if !hasProperty(columnMap, propRef) {
		return nil, metrics, errors.New("CSV has no identifier column")
	}

	if !hasProperty(columnMap, propPlace) {
		return nil, metrics, errors.New("CSV has no conservation-place column")
	}

	maxYear := time.Now().Year()

	var artworks []*Artwork

	for nr := 1; ; nr++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, metrics, fmt.Errorf("reading CSV row %d: %w", nr, err)
		}

		metrics.RowsRead++

		a := &Artwork{Source: source, RecordID: nr}

		for i, value := range row {
			value = strings.TrimSpace(value)

			prop, ok := columnMap[i]
			if !ok || value == "" {
				continue
			}

			switch prop {
			case propRef:
				a.Ref = value
			case propTitle:
				a.Title = value
			case propArtist:
				a.Artist = value
			case propYear:
				year, err := strconv.Atoi(value)
				if err != nil || year > maxYear {
					metrics.BadYears++

					continue
				}

				a.Year = year
			case propDomain:
				a.Domain = value
			case propPlace:
				a.Conservation = value

				place := geocode.ParsePlace(value)
				a.Museum = place.Museum
				a.City = place.City
				a.Country = place.Country
				a.LocationKey = place.Key()
			case propDescription:
				a.Description = value
			case propIgnore:
			}
		}

		if err := a.Validate(); err != nil {
			metrics.RowsSkipped++
			log.Printf("Skipping row %d: %v", nr, err)

			continue
		}

		metrics.RowsStored++

		artworks = append(artworks, a)
	}

	return artworks, metrics, nil
}

func hasProperty(columnMap map[int]ArtworkProperty, want ArtworkProperty) bool {
	for _, prop := range columnMap {
		if prop == want {
			return true
		}
	}

	return false
}
