// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/artvision/artvision/catalog"
)

var importOptions = &catalog.ImporterOptions{}

var importCmd = &cobra.Command{
	Use:   "import <file.csv> [file.csv…]",
	Short: "Imports museum-artifact CSV exports into the local database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		importer := catalog.NewImporter(repo, importOptions)

		for _, path := range args {
			if err := importer.ImportFile(path); err != nil {
				return err
			}
		}

		log.Printf(
			"Total import metrics - %d rows read, %d stored, %d skipped, %d unparseable dates",
			importer.Metrics.RowsRead,
			importer.Metrics.RowsStored,
			importer.Metrics.RowsSkipped,
			importer.Metrics.BadYears,
		)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(
		&importOptions.Source,
		"source",
		"",
		"source tag for the imported rows; defaults to the file name",
	)
	importCmd.Flags().BoolVar(
		&importOptions.DryRun,
		"dry-run",
		false,
		"parse and validate without persisting any change",
	)
}
