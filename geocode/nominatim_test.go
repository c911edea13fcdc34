// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocode(t *testing.T) {
	var gotQuery, gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUserAgent = r.Header.Get("User-Agent")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"lat": "48.8606111",
			"lon": "2.337644",
			"class": "tourism",
			"type": "museum",
			"addresstype": "tourism",
			"display_name": "Louvre Museum, Paris, France"
		}]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(&NominatimOptions{
		BaseURL:   server.URL,
		UserAgent: "artvision/test",
	})

	result, err := g.Geocode(context.Background(), "Paris, France")
	require.NoError(t, err)

	assert.Equal(t, "Paris, France", gotQuery)
	assert.Equal(t, "artvision/test", gotUserAgent)
	assert.InDelta(t, 48.8606111, result.Latitude, 1e-9)
	assert.InDelta(t, 2.337644, result.Longitude, 1e-9)
	assert.Equal(t, "high", result.Confidence)
	assert.Equal(t, "nominatim", result.Provider)
	assert.Equal(t, "Louvre Museum, Paris, France", result.DisplayName)
}

func TestNominatimGeocodeNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(&NominatimOptions{BaseURL: server.URL})

	_, err := g.Geocode(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsTransient(err))
}

func TestNominatimGeocodeHTTPErrors(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "service unavailable", statusCode: http.StatusServiceUnavailable, wantTransient: true},
		{name: "forbidden", statusCode: http.StatusForbidden, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			g := NewNominatimGeocoder(&NominatimOptions{BaseURL: server.URL})

			_, err := g.Geocode(context.Background(), "Paris, France")
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, IsTransient(err))
		})
	}
}

func TestNominatimGeocodeLowConfidenceFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"lat": "46.603354",
			"lon": "1.8883335",
			"class": "boundary",
			"type": "administrative",
			"addresstype": "country",
			"display_name": "France"
		}]`))
	}))
	defer server.Close()

	g := NewNominatimGeocoder(&NominatimOptions{BaseURL: server.URL})

	result, err := g.Geocode(context.Background(), "France")
	require.NoError(t, err)
	assert.Equal(t, "low", result.Confidence)
}
