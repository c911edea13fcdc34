// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard serves the catalog as a local read-only JSON API.
package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/artvision/artvision/catalog"
	"github.com/artvision/artvision/spatial"
)

// Server exposes the catalog over HTTP. The repository is injected
// explicitly; handlers hold no global state.
type Server struct {
	repo catalog.ArtworkRepository
	addr string
}

// NewServer creates the dashboard server. addr defaults to
// "localhost:8080" when empty.
func NewServer(repo catalog.ArtworkRepository, addr string) *Server {
	if addr == "" {
		addr = "localhost:8080"
	}

	return &Server{repo: repo, addr: addr}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/artworks", s.listArtworks)
	r.GET("/api/domains", s.listDomains)
	r.GET("/api/domains/:domain/centuries", s.domainCenturies)
	r.GET("/api/map/points", s.mapPoints)
	r.GET("/api/map/cells", s.mapCells)
	r.GET("/api/cities/:city/breakdown", s.cityBreakdown)
	r.GET("/api/stats", s.stats)

	return r
}

// Run serves the API until the listener fails.
func (s *Server) Run() error {
	return s.Router().Run(s.addr)
}

func intQuery(ctx *gin.Context, name string, def int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})

		return 0, false
	}

	return v, true
}

func floatQuery(ctx *gin.Context, name string, def float64) (float64, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a number"})

		return 0, false
	}

	return v, true
}

func (s *Server) listArtworks(ctx *gin.Context) {
	filter := catalog.ArtworkFilter{
		Domain: ctx.Query("domain"),
		City:   ctx.Query("city"),
	}

	var ok bool

	if filter.YearFrom, ok = intQuery(ctx, "year_from", 0); !ok {
		return
	}

	if filter.YearTo, ok = intQuery(ctx, "year_to", 0); !ok {
		return
	}

	if filter.Limit, ok = intQuery(ctx, "limit", 100); !ok {
		return
	}

	if filter.Offset, ok = intQuery(ctx, "offset", 0); !ok {
		return
	}

	artworks, err := s.repo.ListArtworks(filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, toArtworkViews(artworks))
}

// ArtworkView is the JSON shape of one record.
type ArtworkView struct {
	Ref     string         `json:"ref"`
	Title   string         `json:"title,omitempty"`
	Artist  string         `json:"artist,omitempty"`
	Year    int            `json:"year,omitempty"`
	Century int            `json:"century,omitempty"`
	Domain  string         `json:"domain,omitempty"`
	Museum  string         `json:"museum,omitempty"`
	City    string         `json:"city,omitempty"`
	Country string         `json:"country,omitempty"`
	Point   *spatial.Point `json:"point,omitempty"`
}

func toArtworkViews(artworks []*catalog.Artwork) []ArtworkView {
	views := make([]ArtworkView, 0, len(artworks))

	for _, a := range artworks {
		views = append(views, ArtworkView{
			Ref:     a.Ref,
			Title:   a.Title,
			Artist:  a.Artist,
			Year:    a.Year,
			Century: a.Century(),
			Domain:  a.Domain,
			Museum:  a.Museum,
			City:    a.City,
			Country: a.Country,
			Point:   a.Point,
		})
	}

	return views
}

func (s *Server) listDomains(ctx *gin.Context) {
	domains, err := s.repo.DomainCounts()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, domains)
}

func (s *Server) domainCenturies(ctx *gin.Context) {
	domain := ctx.Param("domain")

	yearFrom, ok := intQuery(ctx, "year_from", 0)
	if !ok {
		return
	}

	yearTo, ok := intQuery(ctx, "year_to", 0)
	if !ok {
		return
	}

	centuries, err := s.repo.CenturyHistogram(domain, yearFrom, yearTo)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, centuries)
}

// mapPoints returns the per-city markers, optionally narrowed to a
// radius around near_lat/near_lng (the map viewport).
func (s *Server) mapPoints(ctx *gin.Context) {
	points, err := s.repo.MapPoints()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if ctx.Query("near_lat") != "" || ctx.Query("near_lng") != "" {
		points, err = filterNearby(ctx, points)
		if err != nil {
			return // filterNearby already responded
		}
	}

	ctx.JSON(http.StatusOK, points)
}

var errBadNearFilter = errors.New("bad near filter")

func filterNearby(ctx *gin.Context, points []catalog.CityPoint) ([]catalog.CityPoint, error) {
	if ctx.Query("near_lat") == "" || ctx.Query("near_lng") == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "near_lat and near_lng must be given together"})

		return nil, errBadNearFilter
	}

	lat, ok := floatQuery(ctx, "near_lat", 0)
	if !ok {
		return nil, errBadNearFilter
	}

	lng, ok := floatQuery(ctx, "near_lng", 0)
	if !ok {
		return nil, errBadNearFilter
	}

	radiusKm, ok := floatQuery(ctx, "radius_km", 100)
	if !ok {
		return nil, errBadNearFilter
	}

	center := spatial.Point{Lat: lat, Lng: lng}
	if !center.Valid() || radiusKm <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "near filter out of bounds"})

		return nil, errBadNearFilter
	}

	nearby := make([]catalog.CityPoint, 0, len(points))

	for i := range points {
		if center.HaversineDistance(&points[i].Point) <= radiusKm*1000 {
			nearby = append(nearby, points[i])
		}
	}

	return nearby, nil
}

func (s *Server) mapCells(ctx *gin.Context) {
	res, ok := intQuery(ctx, "res", 4)
	if !ok {
		return
	}

	if res < spatial.MinResolution || res > spatial.MaxResolution {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": "res must be between 1 and 8",
		})

		return
	}

	cells, err := s.repo.CellAggregates(res)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, cells)
}

func (s *Server) cityBreakdown(ctx *gin.Context) {
	city := ctx.Param("city")

	breakdown, err := s.repo.CityBreakdown(city)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, breakdown)
}

func (s *Server) stats(ctx *gin.Context) {
	stats, err := s.repo.Stats()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, stats)
}
