// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/artvision/artvision/spatial"
)

// Request is one location to resolve. Key is the normalized cache key,
// Query is the free-form text sent to the provider on a cache miss.
type Request struct {
	Key   string
	Query string
}

// ResolverOptions configuration for the Resolver.
type ResolverOptions struct {
	// Delay between consecutive network calls, to respect the
	// provider's rate limit. Zero means no delay.
	Delay time.Duration

	// MaxRetries bounds the retry attempts for transient failures on a
	// single key. Zero means no retries.
	MaxRetries int

	// RetryWait is the base wait between retries. Each retry doubles
	// it. Zero means retry immediately.
	RetryWait time.Duration

	// DryRun resolves but never writes the cache back.
	DryRun bool
}

// ResolverMetrics tracks statistics about a resolution batch.
type ResolverMetrics struct {
	CacheHits   int
	Overridden  int
	Resolved    int
	NotFound    int
	Failed      int
	Retries     int
	NetworkReqs int
}

// Merge combines two ResolverMetrics.
func (m *ResolverMetrics) Merge(o *ResolverMetrics) *ResolverMetrics {
	m.CacheHits += o.CacheHits
	m.Overridden += o.Overridden
	m.Resolved += o.Resolved
	m.NotFound += o.NotFound
	m.Failed += o.Failed
	m.Retries += o.Retries
	m.NetworkReqs += o.NetworkReqs

	return m
}

// Resolver turns location requests into cached coordinates. It checks
// the persisted cache first, then curated overrides, and only then the
// network provider. Every outcome is written back to the cache so the
// next run does less work.
type Resolver struct {
	cache     *Cache
	overrides *Overrides
	geocoder  Geocoder
	options   *ResolverOptions
	Metrics   ResolverMetrics
}

// NewResolver creates a resolver over the given cache and provider.
// overrides may be nil.
func NewResolver(cache *Cache, overrides *Overrides, geocoder Geocoder, options *ResolverOptions) *Resolver {
	if options == nil {
		options = &ResolverOptions{}
	}

	if overrides == nil {
		overrides = &Overrides{coords: make(map[string]Coordinates)}
	}

	return &Resolver{
		cache:     cache,
		overrides: overrides,
		geocoder:  geocoder,
		options:   options,
	}
}

// Resolve returns the entry for a single request, resolving it if it is
// not already terminal in the cache. The outcome is recorded in the
// in-memory cache but not persisted; call ResolveAll for batch work
// with persistence.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Entry, error) {
	if req.Key == "" {
		return nil, errors.New("empty location key")
	}

	if entry, ok := r.cache.Lookup(req.Key); ok && entry.Terminal() {
		r.Metrics.CacheHits++

		return entry, nil
	}

	entry := r.resolveMiss(ctx, req)
	r.cache.Put(entry)

	return entry, nil
}

// ResolveAll resolves every request, deduplicated by key in first-seen
// order, and persists the cache when done. Individual failures don't
// abort the batch. The cache is flushed even when the batch is
// interrupted, so partial progress is never lost.
func (r *Resolver) ResolveAll(ctx context.Context, requests []Request) error {
	pending := dedupe(requests)

	var misses []Request

	for _, req := range pending {
		if entry, ok := r.cache.Lookup(req.Key); ok && entry.Terminal() {
			r.Metrics.CacheHits++

			continue
		}

		misses = append(misses, req)
	}

	log.Printf(
		"Resolving %d unique locations (%d already cached, %d to look up)",
		len(pending), r.Metrics.CacheHits, len(misses),
	)

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) && len(misses) > 0 {
		bar = progressbar.NewOptions(len(misses),
			progressbar.OptionSetDescription("Geocoding"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var batchErr error

	for i, req := range misses {
		if err := ctx.Err(); err != nil {
			batchErr = err

			break
		}

		if i > 0 && r.options.Delay > 0 {
			time.Sleep(r.options.Delay)
		}

		entry := r.resolveMiss(ctx, req)
		r.cache.Put(entry)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if !r.options.DryRun {
		if err := r.cache.Save(); err != nil {
			return errors.Join(batchErr, fmt.Errorf("saving geocoding cache: %w", err))
		}
	}

	log.Printf(
		"Geocoding completed - %d hits, %d overridden, %d resolved, %d not found, %d failed (%d network calls, %d retries)",
		r.Metrics.CacheHits, r.Metrics.Overridden, r.Metrics.Resolved,
		r.Metrics.NotFound, r.Metrics.Failed, r.Metrics.NetworkReqs, r.Metrics.Retries,
	)

	return batchErr
}

// resolveMiss produces an entry for a key with no terminal cache entry.
func (r *Resolver) resolveMiss(ctx context.Context, req Request) *Entry {
	if coords, ok := r.overrides.Lookup(req.Key); ok {
		r.Metrics.Overridden++

		return &Entry{
			Key:        req.Key,
			Latitude:   coords.Latitude,
			Longitude:  coords.Longitude,
			Status:     StatusResolved,
			ResolvedAt: time.Now(),
		}
	}

	result, err := r.lookupWithRetry(ctx, req.Query)

	switch {
	case err == nil:
		point := spatial.Point{Lat: result.Latitude, Lng: result.Longitude}
		if !point.Valid() {
			r.Metrics.Failed++
			log.Printf("Geocoding %q returned out-of-bounds coordinates %s", req.Query, point)

			// treated like a provider failure: retried on the next run
			return &Entry{
				Key:        req.Key,
				Status:     StatusError,
				ResolvedAt: time.Now(),
			}
		}

		r.Metrics.Resolved++

		return &Entry{
			Key:        req.Key,
			Latitude:   result.Latitude,
			Longitude:  result.Longitude,
			Status:     StatusResolved,
			ResolvedAt: time.Now(),
		}
	case IsNotFound(err):
		r.Metrics.NotFound++
		log.Printf("No match for %q", req.Query)

		return &Entry{
			Key:        req.Key,
			Status:     StatusNotFound,
			ResolvedAt: time.Now(),
		}
	default:
		r.Metrics.Failed++
		log.Printf("Geocoding %q failed: %v", req.Query, err)

		// transient outcome: the next run retries this key
		return &Entry{
			Key:        req.Key,
			Status:     StatusError,
			ResolvedAt: time.Now(),
		}
	}
}

// lookupWithRetry issues the network call, retrying transient failures
// a bounded number of times with doubling waits.
func (r *Resolver) lookupWithRetry(ctx context.Context, query string) (*Result, error) {
	wait := r.options.RetryWait

	var lastErr error

	for attempt := 0; attempt <= r.options.MaxRetries; attempt++ {
		if attempt > 0 {
			r.Metrics.Retries++

			if wait > 0 {
				time.Sleep(wait)
				wait *= 2
			}
		}

		r.Metrics.NetworkReqs++

		result, err := r.geocoder.Geocode(ctx, query)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// dedupe keeps the first occurrence of each key, preserving order.
func dedupe(requests []Request) []Request {
	seen := make(map[string]struct{}, len(requests))
	ret := make([]Request, 0, len(requests))

	for _, req := range requests {
		if req.Key == "" {
			continue
		}

		if _, ok := seen[req.Key]; ok {
			continue
		}

		seen[req.Key] = struct{}{}
		ret = append(ret, req)
	}

	return ret
}
