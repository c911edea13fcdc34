// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/artvision/artvision/dashboard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the dashboard API over the local catalog",
	RunE: func(_ *cobra.Command, _ []string) error {
		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		log.Printf("Serving dashboard API on http://%s", serveAddr)

		return dashboard.NewServer(repo, serveAddr).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveAddr,
		"addr",
		"localhost:8080",
		"listen address",
	)
}
