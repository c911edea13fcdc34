// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artvision/artvision/catalog"
	"github.com/artvision/artvision/geocode"
)

// setupServerTest seeds an in-memory catalog and returns its router.
func setupServerTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	repo, err := catalog.NewSQLArtworkRepository(db)
	require.NoError(t, err)
	require.NoError(t, repo.CreateSchema())

	artworks := []*catalog.Artwork{
		{
			Ref: "M0001", Source: "export.csv", RecordID: 1,
			Title: "La Joconde", Artist: "Léonard de Vinci", Year: 1503,
			Domain: "peinture", Museum: "Musée du Louvre",
			City: "Paris", Country: "France", LocationKey: "paris",
		},
		{
			Ref: "M0002", Source: "export.csv", RecordID: 2,
			Title: "Le Penseur", Artist: "Auguste Rodin", Year: 1882,
			Domain: "sculpture", Museum: "Musée Rodin",
			City: "Paris", Country: "France", LocationKey: "paris",
		},
		{
			Ref: "M0003", Source: "export.csv", RecordID: 3,
			Title: "Sans titre", Domain: "dessin", Museum: "Musée des Beaux-Arts",
			City: "Lyon", Country: "France", LocationKey: "lyon",
		},
	}
	require.NoError(t, repo.SaveArtworks(artworks))

	cache := geocode.NewCache("")
	cache.Put(&geocode.Entry{
		Key:       "paris",
		Latitude:  48.8566,
		Longitude: 2.3522,
		Status:    geocode.StatusResolved,
	})

	_, err = repo.BackfillGeocoding(cache)
	require.NoError(t, err)

	return NewServer(repo, "").Router()
}

func TestListArtworksAPI(t *testing.T) {
	router := setupServerTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/artworks?domain=peinture", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var artworks []ArtworkView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artworks))
	require.Len(t, artworks, 1)
	assert.Equal(t, "La Joconde", artworks[0].Title)
	assert.Equal(t, 16, artworks[0].Century)
	require.NotNil(t, artworks[0].Point)
	assert.InDelta(t, 48.8566, artworks[0].Point.Lat, 1e-6)

	// year range filter
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/artworks?year_from=1600&year_to=1900", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artworks))
	require.Len(t, artworks, 1)
	assert.Equal(t, "Le Penseur", artworks[0].Title)

	// malformed filter
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/artworks?year_from=abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDomainsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/domains", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var domains []catalog.DomainCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &domains))
	assert.Len(t, domains, 3)
}

func TestDomainCenturiesAPI(t *testing.T) {
	router := setupServerTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/domains/sculpture/centuries", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var centuries []catalog.CenturyCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &centuries))
	require.Len(t, centuries, 1)
	assert.Equal(t, catalog.CenturyCount{Century: 19, Count: 1}, centuries[0])
}

func TestMapPointsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/map/points", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var points []catalog.CityPoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, "Paris", points[0].City)
	assert.Equal(t, 2, points[0].Count)
}

func TestMapCellsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/map/cells?res=5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var cells []catalog.CellCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cells))
	require.Len(t, cells, 1)
	assert.Equal(t, 2, cells[0].Count)

	// out-of-range resolution
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/map/cells?res=11", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapPointsNearFilterAPI(t *testing.T) {
	router := setupServerTest(t)

	// Versailles is ~17 km from the seeded Paris marker
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/map/points?near_lat=48.8049&near_lng=2.1204&radius_km=30", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var points []catalog.CityPoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, "Paris", points[0].City)

	// same center, radius too small
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/map/points?near_lat=48.8049&near_lng=2.1204&radius_km=5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	assert.Empty(t, points)

	// half a filter is a client error
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/map/points?near_lat=48.8049", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// out-of-bounds center
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/map/points?near_lat=200&near_lng=999", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCityBreakdownAPI(t *testing.T) {
	router := setupServerTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/cities/Paris/breakdown", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var breakdown []catalog.BreakdownRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &breakdown))
	assert.Len(t, breakdown, 2)
}

func TestStatsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats catalog.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Artworks)
	assert.Equal(t, 2, stats.Geocoded)
}
