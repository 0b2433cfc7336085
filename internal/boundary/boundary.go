// Package boundary fetches administrative outline geometries from PostGIS
// for backdrop rendering. Boundaries are never joined with attributes; they
// exist only to be drawn under or over a choropleth.
package boundary

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/proj"
)

// Pool is the subset of pgxpool.Pool the boundary source needs. pgxmock
// pools satisfy it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// validLevels maps admin levels to their backing tables. Levels gate the
// table name so it never comes from user input directly.
var validLevels = map[string]string{
	"city":   "boundaries.cities",
	"region": "boundaries.regions",
	"county": "boundaries.counties",
}

// Levels returns the supported admin levels.
func Levels() []string {
	return []string{"city", "county", "region"}
}

// Fetch returns the boundaries at the given admin level, filtered to the
// identifier set when ids is non-empty. Geometries come back as EWKB in
// EPSG:4326.
func Fetch(ctx context.Context, pool Pool, level string, ids []string) (*feature.Boundary, error) {
	table, ok := validLevels[level]
	if !ok {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "boundary: unknown level %q", level)
	}

	sql := `SELECT geoid, name, ST_AsEWKB(geom) FROM ` + table
	var args []any
	if len(ids) > 0 {
		sql += ` WHERE geoid = ANY($1)`
		args = append(args, ids)
	}
	sql += ` ORDER BY geoid`

	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: query %s", table)
	}
	defer rows.Close()

	var feats []feature.Feature
	for rows.Next() {
		var geoid, name string
		var raw []byte
		if err := rows.Scan(&geoid, &name, &raw); err != nil {
			return nil, eris.Wrap(err, "boundary: scan row")
		}

		g, err := ewkb.Unmarshal(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: decode geometry for %s", geoid)
		}
		switch g.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			zap.L().Debug("boundary: skipping non-polygonal geometry",
				zap.String("geoid", geoid))
			continue
		}

		feats = append(feats, feature.Feature{
			ID:       geoid,
			Geometry: g,
			Attributes: map[string]any{
				"geoid": geoid,
				"name":  name,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "boundary: iterate rows")
	}

	if len(ids) > 0 && len(feats) != len(ids) {
		zap.L().Warn("boundary: some identifiers matched no row",
			zap.String("level", level),
			zap.Int("requested", len(ids)),
			zap.Int("found", len(feats)),
		)
	}

	return &feature.Boundary{CRS: proj.EPSG4326, Features: feats}, nil
}
