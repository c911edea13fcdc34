// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/artvision/artvision/geocode"
	"github.com/artvision/artvision/spatial"
)

// ArtworkRepository defines the interface for database operations.
type ArtworkRepository interface {
	//////// Import
	// CreateSchema creates the database schema.
	CreateSchema() error
	// SaveArtworks saves imported records, replacing the rows of their source.
	SaveArtworks(artworks []*Artwork) error

	//////// Geocoding integration
	// PendingLocations returns the geocoding requests for rows without coordinates.
	PendingLocations() ([]geocode.Request, error)
	// BackfillGeocoding applies a resolved cache to all rows sharing a location key.
	BackfillGeocoding(cache *geocode.Cache) (int64, error)

	//////// Dashboard queries
	ListArtworks(filter ArtworkFilter) ([]*Artwork, error)
	DomainCounts() ([]DomainCount, error)
	CenturyHistogram(domain string, yearFrom, yearTo int) ([]CenturyCount, error)
	MapPoints() ([]CityPoint, error)
	CellAggregates(res int) ([]CellCount, error)
	CityBreakdown(city string) ([]BreakdownRow, error)
	Stats() (*Stats, error)
}

// ArtworkFilter narrows ListArtworks results. Zero values mean "any".
type ArtworkFilter struct {
	Domain   string
	City     string
	YearFrom int
	YearTo   int
	Limit    int
	Offset   int
}

// DomainCount is one bar of the domain chart.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// CenturyCount is one bucket of the century histogram.
type CenturyCount struct {
	Century int `json:"century"`
	Count   int `json:"count"`
}

// CityPoint is one marker of the map page.
type CityPoint struct {
	City    string        `json:"city"`
	Country string        `json:"country,omitempty"`
	Point   spatial.Point `json:"point"`
	Count   int           `json:"count"`
}

// CellCount aggregates artworks into one H3 cell.
type CellCount struct {
	Cell  uint64 `json:"cell"`
	Count int    `json:"count"`
}

// BreakdownRow is one slice of the per-city domain/artist rollup.
type BreakdownRow struct {
	Domain string `json:"domain"`
	Artist string `json:"artist"`
	Count  int    `json:"count"`
}

// Stats summarizes the catalog and its geocoding coverage.
type Stats struct {
	Artworks int `json:"artworks"`
	Domains  int `json:"domains"`
	Artists  int `json:"artists"`
	Cities   int `json:"cities"`
	Geocoded int `json:"geocoded"`
}

type sqlArtworkRepository struct {
	db *sql.DB
}

// NewSQLArtworkRepository wires a repository over a DuckDB handle.
func NewSQLArtworkRepository(db *sql.DB) (ArtworkRepository, error) {
	// DuckDB needs to load the spatial extension
	_, err := db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return nil, err
	}

	return &sqlArtworkRepository{db: db}, nil
}

func (r *sqlArtworkRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS artworks (
			ref VARCHAR NOT NULL,
			source VARCHAR NOT NULL,
			record_id INTEGER NOT NULL,
			title VARCHAR,
			artist VARCHAR,
			"year" SMALLINT,
			domain VARCHAR,
			description VARCHAR,
			conservation VARCHAR,
			museum VARCHAR,
			city VARCHAR,
			country VARCHAR,
			location_key VARCHAR,
			point POINT_2D,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);

		CREATE TABLE IF NOT EXISTS locations (
			location_key VARCHAR NOT NULL,
			point POINT_2D,
			h3_res1 UBIGINT,
			h3_res2 UBIGINT,
			h3_res3 UBIGINT,
			h3_res4 UBIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

func nve(v string) any {
	var ret any
	if len(v) == 0 {
		ret = nil
	} else {
		ret = v
	}

	return ret
}

func nz(v uint64) any {
	if v == 0 {
		return nil
	}

	return v
}

func (r *sqlArtworkRepository) SaveArtworks(artworks []*Artwork) error {
	if len(artworks) == 0 {
		return nil
	}

	source := artworks[0].Source
	tx, err := r.db.Begin()

	if err != nil {
		return fmt.Errorf("starting transaction for %s: %w", source, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("failed to rollback transaction for %s: %v", source, err)
		}
	}()

	if _, err := tx.Exec("DELETE FROM artworks WHERE source = ?", source); err != nil {
		return fmt.Errorf("deleting records for %s: %w", source, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO artworks (
			ref, source, record_id, title, artist, "year", domain, description,
			conservation, museum, city, country, location_key,
			point,
			h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range artworks {
		var year any
		if a.Year != 0 {
			year = a.Year
		}

		var lng, lat any
		if a.Point != nil {
			lng = a.Point.Lng
			lat = a.Point.Lat
		}

		_, err := stmt.Exec(
			a.Ref,
			a.Source,
			a.RecordID,
			nve(a.Title),
			nve(a.Artist),
			year,
			nve(a.Domain),
			nve(a.Description),
			nve(a.Conservation),
			nve(a.Museum),
			nve(a.City),
			nve(a.Country),
			nve(a.LocationKey),
			lng,
			lat,
			nz(a.Cells.At(1)),
			nz(a.Cells.At(2)),
			nz(a.Cells.At(3)),
			nz(a.Cells.At(4)),
			nz(a.Cells.At(5)),
			nz(a.Cells.At(6)),
			nz(a.Cells.At(7)),
			nz(a.Cells.At(8)),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s for %s: %w", a.Ref, source, err)
		}
	}

	return tx.Commit()
}

// PendingLocations returns one request per distinct location key without
// coordinates, in first-seen dataset order.
func (r *sqlArtworkRepository) PendingLocations() ([]geocode.Request, error) {
	rows, err := r.db.Query(`
		SELECT
			location_key,
			MIN(museum),
			MIN(city),
			MIN(country)
		FROM artworks
		WHERE location_key IS NOT NULL AND point IS NULL
		GROUP BY location_key
		ORDER BY MIN(source), MIN(record_id)
	`)
	if err != nil {
		return nil, fmt.Errorf("querying pending locations: %w", err)
	}
	defer rows.Close()

	var ret []geocode.Request

	for rows.Next() {
		var key string

		var museum, city, country sql.NullString

		if err := rows.Scan(&key, &museum, &city, &country); err != nil {
			return nil, fmt.Errorf("scanning pending location: %w", err)
		}

		place := geocode.Place{
			Museum:  museum.String,
			City:    city.String,
			Country: country.String,
		}

		ret = append(ret, geocode.Request{Key: key, Query: place.Query()})
	}

	return ret, rows.Err()
}

// BackfillGeocoding replaces the locations table with the cache's
// resolved entries and broadcasts their coordinates to every artwork
// sharing the location key.
func (r *sqlArtworkRepository) BackfillGeocoding(cache *geocode.Cache) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting backfill transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("failed to rollback backfill transaction: %v", err)
		}
	}()

	if _, err := tx.Exec("DELETE FROM locations"); err != nil {
		return 0, fmt.Errorf("clearing locations: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO locations (
			location_key, point,
			h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
		) VALUES (?, ST_Point(?, ?), ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing locations statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range cache.Entries() {
		if !entry.HasCoordinates() {
			continue
		}

		point := spatial.Point{Lat: entry.Latitude, Lng: entry.Longitude}

		cells, err := spatial.CellsFor(point)
		if err != nil {
			log.Printf("Skipping H3 cells for %q: %v", entry.Key, err)
		}

		_, err = stmt.Exec(
			entry.Key,
			point.Lng, point.Lat,
			nz(cells.At(1)), nz(cells.At(2)), nz(cells.At(3)), nz(cells.At(4)),
			nz(cells.At(5)), nz(cells.At(6)), nz(cells.At(7)), nz(cells.At(8)),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting location %q: %w", entry.Key, err)
		}
	}

	result, err := tx.Exec(`
		UPDATE artworks
		SET
			point = l.point,
			h3_res1 = l.h3_res1,
			h3_res2 = l.h3_res2,
			h3_res3 = l.h3_res3,
			h3_res4 = l.h3_res4,
			h3_res5 = l.h3_res5,
			h3_res6 = l.h3_res6,
			h3_res7 = l.h3_res7,
			h3_res8 = l.h3_res8
		FROM
			locations l
		WHERE
			artworks.location_key = l.location_key
			AND artworks.point IS NULL
	`)
	if err != nil {
		return 0, fmt.Errorf("backfilling geocoding data: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return n, tx.Commit()
}

func (r *sqlArtworkRepository) ListArtworks(filter ArtworkFilter) ([]*Artwork, error) {
	query := `
		SELECT
			ref, source, record_id, title, artist, "year", domain,
			description, conservation, museum, city, country, location_key, point
		FROM artworks
		WHERE 1 = 1
	`

	var args []any

	if filter.Domain != "" {
		query += " AND domain = ?"

		args = append(args, filter.Domain)
	}

	if filter.City != "" {
		query += " AND city = ?"

		args = append(args, filter.City)
	}

	if filter.YearFrom != 0 {
		query += ` AND "year" >= ?`

		args = append(args, filter.YearFrom)
	}

	if filter.YearTo != 0 {
		query += ` AND "year" <= ?`

		args = append(args, filter.YearTo)
	}

	query += " ORDER BY source, record_id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying artworks: %w", err)
	}
	defer rows.Close()

	var ret []*Artwork

	for rows.Next() {
		a := &Artwork{}

		var title, artist, domain, description, conservation sql.NullString

		var museum, city, country, locationKey sql.NullString

		var year sql.NullInt64

		var point spatial.Point

		var pointRaw any

		if err := rows.Scan(
			&a.Ref, &a.Source, &a.RecordID, &title, &artist, &year, &domain,
			&description, &conservation, &museum, &city, &country, &locationKey, &pointRaw,
		); err != nil {
			return nil, fmt.Errorf("scanning artwork: %w", err)
		}

		a.Title = title.String
		a.Artist = artist.String
		a.Year = int(year.Int64)
		a.Domain = domain.String
		a.Description = description.String
		a.Conservation = conservation.String
		a.Museum = museum.String
		a.City = city.String
		a.Country = country.String
		a.LocationKey = locationKey.String

		if pointRaw != nil {
			if err := point.Scan(pointRaw); err != nil {
				return nil, fmt.Errorf("scanning artwork point: %w", err)
			}

			a.Point = &point
		}

		ret = append(ret, a)
	}

	return ret, rows.Err()
}

func (r *sqlArtworkRepository) DomainCounts() ([]DomainCount, error) {
	rows, err := r.db.Query(`
		SELECT COALESCE(domain, 'Domaine inconnu') AS domain, COUNT(*) AS n
		FROM artworks
		GROUP BY 1
		ORDER BY n DESC, domain
	`)
	if err != nil {
		return nil, fmt.Errorf("querying domain counts: %w", err)
	}
	defer rows.Close()

	var ret []DomainCount

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, fmt.Errorf("scanning domain count: %w", err)
		}

		ret = append(ret, dc)
	}

	return ret, rows.Err()
}

func (r *sqlArtworkRepository) CenturyHistogram(domain string, yearFrom, yearTo int) ([]CenturyCount, error) {
	query := `
		SELECT CAST(CEIL("year" / 100.0) AS INTEGER) AS century, COUNT(*) AS n
		FROM artworks
		WHERE "year" IS NOT NULL AND "year" > 0
	`

	var args []any

	if domain != "" {
		query += " AND domain = ?"

		args = append(args, domain)
	}

	if yearFrom != 0 {
		query += ` AND "year" >= ?`

		args = append(args, yearFrom)
	}

	if yearTo != 0 {
		query += ` AND "year" <= ?`

		args = append(args, yearTo)
	}

	query += " GROUP BY century ORDER BY century"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying century histogram: %w", err)
	}
	defer rows.Close()

	var ret []CenturyCount

	for rows.Next() {
		var cc CenturyCount
		if err := rows.Scan(&cc.Century, &cc.Count); err != nil {
			return nil, fmt.Errorf("scanning century count: %w", err)
		}

		ret = append(ret, cc)
	}

	return ret, rows.Err()
}

func (r *sqlArtworkRepository) MapPoints() ([]CityPoint, error) {
	rows, err := r.db.Query(`
		SELECT
			COALESCE(city, museum) AS place,
			country,
			point,
			COUNT(*) AS n
		FROM artworks
		WHERE point IS NOT NULL
		GROUP BY place, country, point
		ORDER BY n DESC, place
	`)
	if err != nil {
		return nil, fmt.Errorf("querying map points: %w", err)
	}
	defer rows.Close()

	var ret []CityPoint

	for rows.Next() {
		var cp CityPoint

		var place, country sql.NullString

		if err := rows.Scan(&place, &country, &cp.Point, &cp.Count); err != nil {
			return nil, fmt.Errorf("scanning map point: %w", err)
		}

		cp.City = place.String
		cp.Country = country.String

		ret = append(ret, cp)
	}

	return ret, rows.Err()
}

func (r *sqlArtworkRepository) CellAggregates(res int) ([]CellCount, error) {
	if res < spatial.MinResolution || res > spatial.MaxResolution {
		return nil, fmt.Errorf("resolution %d out of range [%d, %d]",
			res, spatial.MinResolution, spatial.MaxResolution)
	}

	query := fmt.Sprintf(`
		SELECT h3_res%d AS cell, COUNT(*) AS n
		FROM artworks
		WHERE h3_res%d IS NOT NULL
		GROUP BY cell
		ORDER BY n DESC
	`, res, res)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying cell aggregates: %w", err)
	}
	defer rows.Close()

	var ret []CellCount

	for rows.Next() {
		var cc CellCount
		if err := rows.Scan(&cc.Cell, &cc.Count); err != nil {
			return nil, fmt.Errorf("scanning cell aggregate: %w", err)
		}

		ret = append(ret, cc)
	}

	return ret, rows.Err()
}

func (r *sqlArtworkRepository) CityBreakdown(city string) ([]BreakdownRow, error) {
	rows, err := r.db.Query(`
		SELECT
			COALESCE(domain, 'Domaine inconnu'),
			COALESCE(artist, 'Artiste inconnu'),
			COUNT(*) AS n
		FROM artworks
		WHERE city = ?
		GROUP BY 1, 2
		ORDER BY n DESC, 1, 2
	`, city)
	if err != nil {
		return nil, fmt.Errorf("querying city breakdown: %w", err)
	}
	defer rows.Close()

	var ret []BreakdownRow

	for rows.Next() {
		var br BreakdownRow
		if err := rows.Scan(&br.Domain, &br.Artist, &br.Count); err != nil {
			return nil, fmt.Errorf("scanning breakdown row: %w", err)
		}

		ret = append(ret, br)
	}

	return ret, rows.Err()
}

func (r *sqlArtworkRepository) Stats() (*Stats, error) {
	row := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(DISTINCT domain),
			COUNT(DISTINCT artist),
			COUNT(DISTINCT city),
			COUNT(point)
		FROM artworks
	`)

	stats := &Stats{}
	if err := row.Scan(&stats.Artworks, &stats.Domains, &stats.Artists, &stats.Cities, &stats.Geocoded); err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}

	return stats, nil
}
