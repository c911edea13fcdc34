// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Status is the recorded outcome of a geocoding attempt.
type Status string

const (
	// StatusResolved means coordinates were obtained. Terminal.
	StatusResolved Status = "resolved"
	// StatusNotFound means the provider has no match. Terminal, so a
	// noisy provider is not re-queried every run.
	StatusNotFound Status = "not_found"
	// StatusError means the last attempt failed transiently. The next
	// run retries these keys.
	StatusError Status = "error"
)

// Entry is one cached geocoding outcome.
type Entry struct {
	Key        string
	Latitude   float64
	Longitude  float64
	Status     Status
	ResolvedAt time.Time
}

// HasCoordinates reports whether the entry carries usable coordinates.
func (e *Entry) HasCoordinates() bool {
	return e.Status == StatusResolved
}

// Terminal reports whether the entry needs no further lookups.
// Transient errors are not terminal: a later run retries them.
func (e *Entry) Terminal() bool {
	return e.Status == StatusResolved || e.Status == StatusNotFound
}

// Cache is the persisted geocoding cache. It is both an output artifact
// and the authoritative source read on the next run, which makes fully
// offline operation possible once every key is resolved.
//
// The cache is not safe for concurrent use. The pipeline is a one-shot
// preprocessing step with a single writer.
type Cache struct {
	path    string
	entries map[string]*Entry
	order   []string // keys in insertion order, for deterministic output
}

const cacheFilePerm = 0o600

var cacheHeader = []string{"location_key", "latitude", "longitude", "status", "resolved_at"}

// NewCache creates an empty cache that will persist to path.
func NewCache(path string) *Cache {
	return &Cache{
		path:    path,
		entries: make(map[string]*Entry),
	}
}

// OpenCache loads the cache from path. A missing or unreadable file is
// not an error: the cache starts empty and is rebuilt from scratch.
func OpenCache(path string) (*Cache, error) {
	c := NewCache(path)

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}

		log.Printf("⚠️ Cache file %s unreadable, rebuilding from scratch: %v", path, err)

		return c, nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		log.Printf("⚠️ Cache file %s corrupt, rebuilding from scratch: %v", path, err)

		return NewCache(path), nil
	}

	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == cacheHeader[0] {
			continue
		}

		entry, err := parseCacheRow(row)
		if err != nil {
			log.Printf("⚠️ Skipping cache row %d: %v", i+1, err)

			continue
		}

		c.Put(entry)
	}

	return c, nil
}

func parseCacheRow(row []string) (*Entry, error) {
	if len(row) < 4 {
		return nil, fmt.Errorf("expected at least 4 columns, got %d", len(row))
	}

	entry := &Entry{
		Key:    row[0],
		Status: Status(row[3]),
	}

	if entry.Key == "" {
		return nil, errors.New("empty location key")
	}

	switch entry.Status {
	case StatusResolved, StatusNotFound, StatusError:
	default:
		return nil, fmt.Errorf("unknown status %q", row[3])
	}

	if entry.Status == StatusResolved {
		lat, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing latitude %q: %w", row[1], err)
		}

		lng, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing longitude %q: %w", row[2], err)
		}

		entry.Latitude, entry.Longitude = lat, lng
	}

	if len(row) >= 5 && row[4] != "" {
		ts, err := time.Parse(time.RFC3339, row[4])
		if err != nil {
			return nil, fmt.Errorf("parsing resolved_at %q: %w", row[4], err)
		}

		entry.ResolvedAt = ts
	}

	return entry, nil
}

// Lookup returns the cached entry for key, if any.
func (c *Cache) Lookup(key string) (*Entry, bool) {
	entry, ok := c.entries[key]

	return entry, ok
}

// Put inserts or replaces the entry for its key. First insertion order
// is preserved across replacements.
func (c *Cache) Put(entry *Entry) {
	if _, ok := c.entries[entry.Key]; !ok {
		c.order = append(c.order, entry.Key)
	}

	c.entries[entry.Key] = entry
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns all entries in insertion order.
func (c *Cache) Entries() []*Entry {
	ret := make([]*Entry, 0, len(c.order))
	for _, key := range c.order {
		ret = append(ret, c.entries[key])
	}

	return ret
}

// Save persists the cache atomically: it writes a temporary file next
// to the target and renames it into place, so a crash mid-write never
// leaves a truncated cache behind.
func (c *Cache) Save() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temporary cache file: %w", err)
	}

	tmpName := tmp.Name()

	if err := c.write(tmp); err != nil {
		err = errors.Join(err, tmp.Close(), os.Remove(tmpName))

		return fmt.Errorf("writing cache: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("closing temporary cache file: %w", err), os.Remove(tmpName))
	}

	if err := os.Chmod(tmpName, cacheFilePerm); err != nil {
		return errors.Join(fmt.Errorf("setting cache file permissions: %w", err), os.Remove(tmpName))
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		return errors.Join(fmt.Errorf("replacing cache file: %w", err), os.Remove(tmpName))
	}

	return nil
}

func (c *Cache) write(f *os.File) error {
	w := csv.NewWriter(f)

	if err := w.Write(cacheHeader); err != nil {
		return err
	}

	for _, key := range c.order {
		entry := c.entries[key]

		var lat, lng string
		if entry.Status == StatusResolved {
			lat = strconv.FormatFloat(entry.Latitude, 'f', -1, 64)
			lng = strconv.FormatFloat(entry.Longitude, 'f', -1, 64)
		}

		var resolvedAt string
		if !entry.ResolvedAt.IsZero() {
			resolvedAt = entry.ResolvedAt.UTC().Format(time.RFC3339)
		}

		if err := w.Write([]string{entry.Key, lat, lng, string(entry.Status), resolvedAt}); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}
