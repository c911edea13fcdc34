// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/artvision/artvision/utils/httputils"
)

// DefaultNominatimBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// NominatimOptions configuration for the Nominatim geocoder.
type NominatimOptions struct {
	// BaseURL overrides the search endpoint, mainly for tests and
	// self-hosted instances. Empty means DefaultNominatimBaseURL.
	BaseURL string

	// UserAgent is the User-Agent header to use in HTTP requests.
	// Nominatim's usage policy requires an identifying agent.
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// NominatimGeocoder resolves free-form queries against OpenStreetMap's
// Nominatim service.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(options *NominatimOptions) *NominatimGeocoder {
	if options == nil {
		options = &NominatimOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		MaxConnsPerHost:       2,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "artvision/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: loggingTransport,
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}

	return &NominatimGeocoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: headerTransport,
		},
	}
}

type nominatimResponse []struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
	DisplayName string `json:"display_name"`
}

// Geocode implements the Geocoder interface.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "en")

	reqURL := g.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building geocoding request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: "geocoding request failed",
			Err:     err,
		}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	var results nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results for query: %s", query),
		}
	}

	first := results[0]

	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", first.Lat, err)
	}

	lng, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", first.Lon, err)
	}

	// A match on the place itself is trustworthy, an administrative
	// fallback (city, country) only approximates the location.
	confidence := "low"

	switch first.AddressType {
	case "tourism", "museum", "amenity", "building":
		confidence = "high"
	case "city", "town", "village":
		confidence = "medium"
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lng,
		Confidence:  confidence,
		Provider:    "nominatim",
		DisplayName: first.DisplayName,
	}, nil
}
