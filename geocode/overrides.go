// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artvision/artvision/spatial"
)

// Overrides holds curated coordinates for locations the provider keeps
// getting wrong or cannot find at all. Keys are normalized with
// NormalizeKey before lookup, so the file may use natural spellings.
type Overrides struct {
	coords map[string]Coordinates
}

// Coordinates is a bare latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// LoadOverrides reads curated coordinates from a JSON file mapping
// location names to coordinates. A missing file is not an error: it
// means no overrides.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{coords: make(map[string]Coordinates)}

	if path == "" {
		return o, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return o, nil
		}

		return nil, fmt.Errorf("reading overrides file: %w", err)
	}

	var raw map[string]Coordinates
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing overrides JSON: %w", err)
	}

	for name, coords := range raw {
		key := NormalizeKey(name)
		if key == "" {
			return nil, fmt.Errorf("override name %q normalizes to an empty key", name)
		}

		if p := (spatial.Point{Lat: coords.Latitude, Lng: coords.Longitude}); !p.Valid() {
			return nil, fmt.Errorf("override %q has out-of-bounds coordinates %s", name, p)
		}

		o.coords[key] = coords
	}

	return o, nil
}

// Lookup returns the curated coordinates for a normalized key, if any.
func (o *Overrides) Lookup(key string) (Coordinates, bool) {
	coords, ok := o.coords[key]

	return coords, ok
}

// Len returns the number of overrides.
func (o *Overrides) Len() int {
	return len(o.coords)
}
