// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// MinResolution and MaxResolution bound the H3 resolutions stored for a point.
const (
	MinResolution = 1
	MaxResolution = 8
)

// Cells holds the H3 cell index of a point at resolutions 1 through 8.
// The zero value means "no cells" (unresolved point).
type Cells [MaxResolution - MinResolution + 1]uint64

// At returns the cell index at the given resolution.
func (c Cells) At(res int) uint64 {
	if res < MinResolution || res > MaxResolution {
		return 0
	}

	return c[res-MinResolution]
}

// CellsFor computes the H3 cell indexes of a point for every stored resolution.
func CellsFor(p Point) (Cells, error) {
	var cells Cells

	latLng := h3.NewLatLng(p.Lat, p.Lng)

	for res := MinResolution; res <= MaxResolution; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return Cells{}, fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		cells[res-MinResolution] = uint64(cell)
	}

	return cells, nil
}
