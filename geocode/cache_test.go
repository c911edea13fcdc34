// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocoded.csv")

	resolvedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	original := NewCache(path)
	original.Put(&Entry{
		Key:        "paris",
		Latitude:   48.8606,
		Longitude:  2.3376,
		Status:     StatusResolved,
		ResolvedAt: resolvedAt,
	})
	original.Put(&Entry{
		Key:    "unknown institution xyz",
		Status: StatusNotFound,
	})
	original.Put(&Entry{
		Key:    "flaky town",
		Status: StatusError,
	})

	require.NoError(t, original.Save())

	loaded, err := OpenCache(path)
	require.NoError(t, err)

	if diff := cmp.Diff(original.Entries(), loaded.Entries()); diff != "" {
		t.Errorf("cache round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheInsertionOrderPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocoded.csv")

	c := NewCache(path)
	c.Put(&Entry{Key: "c", Status: StatusNotFound})
	c.Put(&Entry{Key: "a", Status: StatusNotFound})
	c.Put(&Entry{Key: "b", Status: StatusNotFound})
	// replacing an entry keeps its original slot
	c.Put(&Entry{Key: "a", Status: StatusResolved, Latitude: 1, Longitude: 2})

	require.NoError(t, c.Save())

	loaded, err := OpenCache(path)
	require.NoError(t, err)

	var keys []string
	for _, entry := range loaded.Entries() {
		keys = append(keys, entry.Key)
	}

	assert.Equal(t, []string{"c", "a", "b"}, keys)
}

func TestOpenCacheMissingFile(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "does-not-exist.csv"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestOpenCacheCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocoded.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"unterminated quote\nnot,a,cache"), 0o600))

	c, err := OpenCache(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestOpenCacheSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocoded.csv")
	content := "location_key,latitude,longitude,status,resolved_at\n" +
		"paris,48.8606,2.3376,resolved,2026-08-01T12:00:00Z\n" +
		"nowhere,,,bogus_status,\n" +
		"lyon,not-a-number,4.8357,resolved,\n" +
		"marseille,,,not_found,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := OpenCache(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	entry, ok := c.Lookup("paris")
	require.True(t, ok)
	assert.True(t, entry.HasCoordinates())
	assert.InDelta(t, 48.8606, entry.Latitude, 1e-9)
	assert.InDelta(t, 2.3376, entry.Longitude, 1e-9)

	entry, ok = c.Lookup("marseille")
	require.True(t, ok)
	assert.False(t, entry.HasCoordinates())
	assert.True(t, entry.Terminal())
}

func TestEntryTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusResolved, true},
		{StatusNotFound, true},
		{StatusError, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			entry := &Entry{Key: "k", Status: tt.status}
			if got := entry.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheSaveOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocoded.csv")

	c := NewCache(path)
	c.Put(&Entry{Key: "k1", Status: StatusNotFound})
	require.NoError(t, c.Save())

	c.Put(&Entry{Key: "k2", Status: StatusResolved, Latitude: 1, Longitude: 2})
	require.NoError(t, c.Save())

	loaded, err := OpenCache(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
