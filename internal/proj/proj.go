// Package proj reprojects feature collections between the two coordinate
// reference systems the renderer cares about: geographic WGS84 (EPSG:4326)
// and spherical Web Mercator (EPSG:3857). Anything else fails loudly rather
// than passing through untransformed.
package proj

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/citymetrics/choromap/internal/feature"
)

// Supported CRS identifiers.
const (
	EPSG4326 = "EPSG:4326"
	EPSG3857 = "EPSG:3857"
)

// Spherical Web Mercator earth radius in meters.
const earthRadius = 6378137.0

// Normalize canonicalizes common spellings of the supported CRS codes.
func Normalize(crs string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(crs)) {
	case "EPSG:4326", "4326", "WGS84", "CRS84":
		return EPSG4326, nil
	case "EPSG:3857", "3857", "EPSG:900913", "WEB-MERCATOR":
		return EPSG3857, nil
	default:
		return "", eris.Wrapf(feature.ErrInvalidInput, "proj: unsupported CRS %q", crs)
	}
}

// Reproject returns a new collection in the target CRS. The input is never
// mutated. Reprojecting to the collection's own CRS is a deep copy.
func Reproject(c *feature.Collection, targetCRS string) (*feature.Collection, error) {
	src, err := Normalize(c.CRS)
	if err != nil {
		return nil, err
	}
	dst, err := Normalize(targetCRS)
	if err != nil {
		return nil, err
	}

	feats, err := reprojectFeatures(c.Features, src, dst)
	if err != nil {
		return nil, err
	}
	return &feature.Collection{CRS: dst, Features: feats}, nil
}

// ReprojectBoundary is Reproject for backdrop boundary collections.
func ReprojectBoundary(b *feature.Boundary, targetCRS string) (*feature.Boundary, error) {
	src, err := Normalize(b.CRS)
	if err != nil {
		return nil, err
	}
	dst, err := Normalize(targetCRS)
	if err != nil {
		return nil, err
	}

	feats, err := reprojectFeatures(b.Features, src, dst)
	if err != nil {
		return nil, err
	}
	return &feature.Boundary{CRS: dst, Features: feats}, nil
}

func reprojectFeatures(feats []feature.Feature, src, dst string) ([]feature.Feature, error) {
	transform := coordFunc(src, dst)

	out := make([]feature.Feature, len(feats))
	for i := range feats {
		g, err := transformGeom(feats[i].Geometry, transform)
		if err != nil {
			return nil, eris.Wrapf(err, "proj: feature %d", i)
		}
		out[i] = feature.Feature{
			ID:         feats[i].ID,
			Geometry:   g,
			Attributes: feats[i].Attributes,
		}
	}
	return out, nil
}

func coordFunc(src, dst string) func(x, y float64) (float64, float64) {
	switch {
	case src == dst:
		return func(x, y float64) (float64, float64) { return x, y }
	case src == EPSG4326 && dst == EPSG3857:
		return lonLatToMercator
	default:
		return mercatorToLonLat
	}
}

// lonLatToMercator projects degrees to spherical Web Mercator meters.
func lonLatToMercator(lon, lat float64) (float64, float64) {
	x := earthRadius * lon * math.Pi / 180
	y := earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// mercatorToLonLat is the exact inverse of lonLatToMercator.
func mercatorToLonLat(x, y float64) (float64, float64) {
	lon := x / earthRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// transformGeom applies a coordinate transform to a polygonal geometry,
// returning a new geometry of the same type.
func transformGeom(g geom.T, fn func(x, y float64) (float64, float64)) (geom.T, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		flat := transformFlat(t.FlatCoords(), t.Layout().Stride(), fn)
		return geom.NewPolygonFlat(t.Layout(), flat, append([]int(nil), t.Ends()...)), nil
	case *geom.MultiPolygon:
		flat := transformFlat(t.FlatCoords(), t.Layout().Stride(), fn)
		endss := make([][]int, len(t.Endss()))
		for i, ends := range t.Endss() {
			endss[i] = append([]int(nil), ends...)
		}
		return geom.NewMultiPolygonFlat(t.Layout(), flat, endss), nil
	case nil:
		return nil, eris.Wrap(feature.ErrInvalidInput, "proj: nil geometry")
	default:
		return nil, eris.Wrapf(feature.ErrInvalidInput, "proj: unsupported geometry type %T", g)
	}
}

func transformFlat(flat []float64, stride int, fn func(x, y float64) (float64, float64)) []float64 {
	out := make([]float64, len(flat))
	copy(out, flat)
	for i := 0; i+1 < len(out); i += stride {
		out[i], out[i+1] = fn(out[i], out[i+1])
	}
	return out
}
