// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artvision/artvision/catalog"
	"github.com/artvision/artvision/geocode"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seeds the database with data from cmd/testdata for local development",
		RunE: func(_ *cobra.Command, _ []string) error {
			return seedDatabase()
		},
	}
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

func seedDatabase() error {
	// remove old db if it exists
	_ = os.Remove(databaseFile())
	_ = os.Remove(databaseFile() + ".wal")

	db, repo, err := openRepository()
	if err != nil {
		return err
	}
	defer db.Close()

	importer := catalog.NewImporter(repo, nil)
	if err := importer.ImportFile("cmd/testdata/seed.csv"); err != nil {
		return err
	}

	cache, err := geocode.OpenCache("cmd/testdata/seed_geocoded.csv")
	if err != nil {
		return fmt.Errorf("opening seed cache: %w", err)
	}

	n, err := repo.BackfillGeocoding(cache)
	if err != nil {
		return fmt.Errorf("backfilling seed coordinates: %w", err)
	}

	fmt.Printf("Database seeded successfully (%d records geocoded).\n", n)

	return nil
}
