// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ImporterOptions configuration for the Importer.
type ImporterOptions struct {
	// Source overrides the source tag; empty means the file's base name.
	Source string

	// DryRun parses and validates but never writes to the database.
	DryRun bool
}

// Importer loads CSV exports into the repository.
type Importer struct {
	repo    ArtworkRepository
	options *ImporterOptions
	Metrics ImportMetrics
}

// NewImporter creates an importer over the given repository.
func NewImporter(repo ArtworkRepository, options *ImporterOptions) *Importer {
	if options == nil {
		options = &ImporterOptions{}
	}

	return &Importer{repo: repo, options: options}
}

// ImportFile parses one CSV export and stores its records, replacing
// any rows previously imported from the same source.
func (i *Importer) ImportFile(path string) error {
	source := i.options.Source
	if source == "" {
		source = filepath.Base(path)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var reader io.Reader = f

	if isatty.IsTerminal(os.Stderr.Fd()) {
		if fi, err := f.Stat(); err == nil {
			bar := progressbar.DefaultBytes(fi.Size(), "Importing "+source)
			defer bar.Close()

			reader = io.TeeReader(f, bar)
		}
	}

	artworks, metrics, err := ReadArtworks(reader, source)
	i.Metrics.Merge(metrics)

	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if i.options.DryRun {
		log.Printf("Dry run, not persisting %d records from %s", len(artworks), source)
	} else if err := i.repo.SaveArtworks(artworks); err != nil {
		return fmt.Errorf("saving records from %s: %w", source, err)
	}

	log.Printf(
		"Import of %s completed - %d rows read, %d stored, %d skipped, %d unparseable dates",
		source, metrics.RowsRead, metrics.RowsStored, metrics.RowsSkipped, metrics.BadYears,
	)

	return nil
}
