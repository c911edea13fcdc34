// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/artvision/artvision/geocode"
)

var geocodeFlags = struct {
	cachePath     string
	overridesPath string
	provider      string
	delay         time.Duration
	retryWait     time.Duration
	maxRetries    int
	dryRun        bool
	httpTrace     bool
	httpBodyTrace bool
}{}

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolves owning institutions to coordinates and backfills the catalog",
	Long: `
Resolves every pending location of the catalog to latitude/longitude.

The persisted cache is consulted first, so repeated runs are idempotent and a
fully warmed cache needs no network at all. Every outcome, including "the
provider has no match", is written back to the cache; transient failures are
recorded too and retried on the next run.
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		cachePath := geocodeFlags.cachePath
		if cachePath == "" {
			cachePath = cacheFile()
		}

		cache, err := geocode.OpenCache(cachePath)
		if err != nil {
			return fmt.Errorf("opening geocoding cache: %w", err)
		}

		log.Printf("Loaded %d cached locations from %s", cache.Len(), cachePath)

		overrides, err := geocode.LoadOverrides(geocodeFlags.overridesPath)
		if err != nil {
			return fmt.Errorf("loading overrides: %w", err)
		}

		geocoder, err := newGeocoder(cmd.Context(), geocodeFlags.provider)
		if err != nil {
			return err
		}

		pending, err := repo.PendingLocations()
		if err != nil {
			return fmt.Errorf("listing pending locations: %w", err)
		}

		resolver := geocode.NewResolver(cache, overrides, geocoder, &geocode.ResolverOptions{
			Delay:      geocodeFlags.delay,
			MaxRetries: geocodeFlags.maxRetries,
			RetryWait:  geocodeFlags.retryWait,
			DryRun:     geocodeFlags.dryRun,
		})

		if err := resolver.ResolveAll(cmd.Context(), pending); err != nil {
			return err
		}

		if geocodeFlags.dryRun {
			log.Println("Dry run, skipping backfill")

			return nil
		}

		n, err := repo.BackfillGeocoding(cache)
		if err != nil {
			return fmt.Errorf("backfilling coordinates: %w", err)
		}

		log.Printf("✅ Backfilled coordinates onto %d records", n)

		return nil
	},
}

func newGeocoder(ctx context.Context, provider string) (geocode.Geocoder, error) {
	switch provider {
	case "nominatim":
		return geocode.NewNominatimGeocoder(&geocode.NominatimOptions{
			UserAgent:           fmt.Sprintf("artvision/%s (+https://github.com/artvision/artvision)", Version),
			EnableHTTPTrace:     geocodeFlags.httpTrace,
			EnableHTTPBodyTrace: geocodeFlags.httpBodyTrace,
		}), nil
	case "google":
		apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
		if apiKey == "" {
			log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

			var err error

			apiKey, err = geocode.APIKeyFromADC(ctx)
			if err != nil {
				return nil, fmt.Errorf("retrieving Google Maps API key: %w", err)
			}

			log.Println("✅ Successfully retrieved API key via ADC")
		}

		return geocode.NewGoogleMapsGeocoder(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want nominatim or google)", provider)
	}
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.Flags().StringVar(
		&geocodeFlags.cachePath,
		"cache",
		"",
		"geocoding cache file; defaults to <db-path>/geocoded.csv",
	)
	geocodeCmd.Flags().StringVar(
		&geocodeFlags.overridesPath,
		"overrides",
		"",
		"JSON file with curated coordinates consulted before the network",
	)
	geocodeCmd.Flags().StringVar(
		&geocodeFlags.provider,
		"provider",
		"nominatim",
		"geocoding provider: nominatim or google",
	)
	geocodeCmd.Flags().DurationVar(
		&geocodeFlags.delay,
		"delay",
		time.Second,
		"delay between network lookups, per the provider's rate limit",
	)
	geocodeCmd.Flags().IntVar(
		&geocodeFlags.maxRetries,
		"max-retries",
		3,
		"retry attempts for transient provider failures",
	)
	geocodeCmd.Flags().DurationVar(
		&geocodeFlags.retryWait,
		"retry-wait",
		5*time.Second,
		"base wait before a retry; doubles on each attempt",
	)
	geocodeCmd.Flags().BoolVar(
		&geocodeFlags.dryRun,
		"dry-run",
		false,
		"resolve without persisting the cache or the backfill",
	)
	geocodeCmd.Flags().BoolVar(
		&geocodeFlags.httpTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	geocodeCmd.Flags().BoolVar(
		&geocodeFlags.httpBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
