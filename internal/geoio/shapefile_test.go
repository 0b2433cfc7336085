package geoio

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestShapeToGeom_Polygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: -80.0, Y: 25.0},
			{X: -80.0, Y: 26.0},
			{X: -79.0, Y: 26.0},
			{X: -79.0, Y: 25.0},
			{X: -80.0, Y: 25.0}, // closed ring
		},
	}

	g := shapeToGeom(poly)
	require.NotNil(t, g)

	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, geom.Coord{-80.0, 25.0}, mp.Polygon(0).LinearRing(0).Coord(0))
}

func TestShapeToGeom_MultiPartPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			// Ring 1
			{X: -80.0, Y: 25.0},
			{X: -80.0, Y: 26.0},
			{X: -79.0, Y: 26.0},
			{X: -79.0, Y: 25.0},
			{X: -80.0, Y: 25.0},
			// Ring 2
			{X: -81.0, Y: 26.0},
			{X: -81.0, Y: 27.0},
			{X: -80.0, Y: 27.0},
			{X: -80.0, Y: 26.0},
			{X: -81.0, Y: 26.0},
		},
	}

	g := shapeToGeom(poly)
	require.NotNil(t, g)

	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestShapeToGeom_EmptyPolygon(t *testing.T) {
	assert.Nil(t, shapeToGeom(&shp.Polygon{}))
}

func TestShapeToGeom_NonPolygon(t *testing.T) {
	assert.Nil(t, shapeToGeom(&shp.Point{X: 1, Y: 2}))
	assert.Nil(t, shapeToGeom(nil))
}

func TestReadShapefile_Missing(t *testing.T) {
	_, err := ReadShapefile(filepath.Join(t.TempDir(), "nope.shp"), "EPSG:4326")
	assert.Error(t, err)
}

func TestReadShapefile_BadCRS(t *testing.T) {
	_, err := ReadShapefile("ignored.shp", "EPSG:32619")
	assert.Error(t, err)
}
