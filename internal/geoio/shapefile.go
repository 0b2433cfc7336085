package geoio

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/proj"
)

// ReadShapefile loads a polygon shapefile into a collection. DBF fields
// typed numeric parse to float64; everything else stays a string. Records
// with nil or non-polygonal shapes are skipped and counted. Shapefiles do
// not carry a machine-readable CRS we support parsing, so the caller names
// the source CRS.
func ReadShapefile(path, crs string) (*feature.Collection, error) {
	normalized, err := proj.Normalize(crs)
	if err != nil {
		return nil, err
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoio: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	numeric := make([]bool, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
		numeric[i] = f.Fieldtype == 'N' || f.Fieldtype == 'F'
	}

	var feats []feature.Feature
	var skipped int

	for reader.Next() {
		n, shape := reader.Shape()

		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]any, len(fields))
		for i := range fields {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			if numeric[i] {
				if parsed, perr := strconv.ParseFloat(val, 64); perr == nil {
					attrs[names[i]] = parsed
					continue
				}
			}
			attrs[names[i]] = val
		}

		feats = append(feats, feature.Feature{
			ID:         strconv.Itoa(n),
			Geometry:   g,
			Attributes: attrs,
		})
	}

	if skipped > 0 {
		zap.L().Debug("geoio: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	if len(feats) == 0 {
		return nil, eris.Errorf("geoio: no polygon features in %s", path)
	}

	return &feature.Collection{CRS: normalized, Features: feats}, nil
}

// shapeToGeom converts a go-shp polygon to a geom.MultiPolygon. Returns nil
// for unsupported or empty shapes.
func shapeToGeom(s shp.Shape) geom.T {
	p, ok := s.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geoio: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geoio: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
