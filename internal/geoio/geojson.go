// Package geoio reads polygon data from shapefiles and GeoJSON into feature
// collections, and writes collections back out as GeoJSON, optionally styled
// with simplestyle fill properties.
package geoio

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/palette"
	"github.com/citymetrics/choromap/internal/proj"
)

// ReadGeoJSON loads a GeoJSON FeatureCollection. RFC 7946 fixes the CRS to
// WGS84, so the result is always EPSG:4326.
func ReadGeoJSON(path string) (*feature.Collection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoio: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrapf(err, "geoio: parse GeoJSON %s", path)
	}

	feats := make([]feature.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, eris.Wrapf(feature.ErrInvalidInput,
				"geoio: feature %d in %s is not polygonal", i, path)
		}

		id := f.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		feats = append(feats, feature.Feature{
			ID:         id,
			Geometry:   f.Geometry,
			Attributes: f.Properties,
		})
	}

	if len(feats) == 0 {
		return nil, eris.Errorf("geoio: no features in %s", path)
	}

	return &feature.Collection{CRS: proj.EPSG4326, Features: feats}, nil
}

// Style carries optional per-feature fill colors for the GeoJSON writer,
// emitted as simplestyle properties. Colors must match the collection order
// and length when present.
type Style struct {
	Colors      []color.Color
	FillOpacity float64
	Stroke      string
}

// WriteGeoJSON writes a collection as a GeoJSON FeatureCollection. When
// style is non-nil, each feature gains fill / fill-opacity / stroke
// properties. The original attribute maps are not mutated.
func WriteGeoJSON(path string, c *feature.Collection, style *Style) error {
	if style != nil && len(style.Colors) != len(c.Features) {
		return eris.Wrapf(feature.ErrInvalidInput,
			"geoio: %d colors for %d features", len(style.Colors), len(c.Features))
	}

	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, len(c.Features))}
	for i := range c.Features {
		props := make(map[string]any, len(c.Features[i].Attributes)+3)
		for k, v := range c.Features[i].Attributes {
			props[k] = v
		}
		if style != nil {
			props["fill"] = palette.HexString(style.Colors[i])
			opacity := style.FillOpacity
			if opacity == 0 {
				opacity = 1
			}
			props["fill-opacity"] = opacity
			if style.Stroke != "" {
				props["stroke"] = style.Stroke
			}
		}
		fc.Features[i] = &geojson.Feature{
			ID:         c.Features[i].ID,
			Geometry:   c.Features[i].Geometry,
			Properties: props,
		}
	}

	raw, err := json.MarshalIndent(&fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "geoio: marshal GeoJSON")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrapf(err, "geoio: write %s", path)
	}
	return nil
}

// Read dispatches on file extension: .shp goes to the shapefile reader,
// anything else is treated as GeoJSON. crs applies to shapefiles only.
func Read(path, crs string) (*feature.Collection, error) {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return ReadShapefile(path, crs)
	}
	return ReadGeoJSON(path)
}
