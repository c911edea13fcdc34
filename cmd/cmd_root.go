// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmd wires the artvision command line interface.
package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/artvision/artvision/catalog"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "artvision",
	Short: "museum-artifact catalog explorer",
	Long: `
artvision imports museum-artifact CSV exports into a local database, geocodes
their owning institutions with a persistent offline-friendly cache, and serves
the collection as a dashboard API.
`,
}

var dbPath string

// Version is stamped at build time.
var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&dbPath,
		"db-path",
		"db",
		"base directory holding the database and geocoding cache",
	)
}

func databaseFile() string {
	return filepath.Join(dbPath, "artvision.duckdb")
}

func cacheFile() string {
	return filepath.Join(dbPath, "geocoded.csv")
}

// openRepository opens the DuckDB database and ensures the schema exists.
func openRepository() (*sql.DB, catalog.ArtworkRepository, error) {
	if err := os.MkdirAll(dbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", databaseFile())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo, err := catalog.NewSQLArtworkRepository(db)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("initializing repository: %w", err), db.Close())
	}

	if err := repo.CreateSchema(); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("creating schema: %w", err), db.Close())
	}

	return db, repo, nil
}
