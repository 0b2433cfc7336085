package main

import (
	"context"
	"image/color"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/geoio"
	"github.com/citymetrics/choromap/internal/palette"
)

// loadCollection reads the input file, defaulting the shapefile CRS to
// geographic WGS84 when none is given.
func loadCollection(input, sourceCRS string) (*feature.Collection, error) {
	if input == "" {
		return nil, eris.New("choromap: --input is required")
	}
	if sourceCRS == "" {
		sourceCRS = "EPSG:4326"
	}
	return geoio.Read(input, sourceCRS)
}

// resolveRamp builds the color ramp from config and flags: a custom palette
// file when configured, built-ins otherwise.
func resolveRamp(name, paletteFile string, classes int) ([]color.Color, error) {
	var custom *palette.File
	if paletteFile != "" {
		f, err := palette.LoadFile(paletteFile)
		if err != nil {
			return nil, err
		}
		custom = f
	}
	return palette.Lookup(name, custom, classes)
}

// boundaryPool connects to the configured PostGIS boundary source.
func boundaryPool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Boundary.DatabaseURL == "" {
		return nil, eris.New("choromap: boundary.database_url is not configured")
	}
	pool, err := pgxpool.New(ctx, cfg.Boundary.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "choromap: connect boundary source")
	}
	return pool, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
