package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/citymetrics/choromap/internal/config"
	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/geoio"
	"github.com/citymetrics/choromap/internal/proj"
)

func writeClassifyInput(t *testing.T) string {
	t.Helper()
	feats := make([]feature.Feature, 0, 4)
	for i, pop := range []float64{10, 20, 30, 100} {
		p := geom.NewPolygon(geom.XY)
		require.NoError(t, p.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0})))
		feats = append(feats, feature.Feature{
			ID:         string(rune('a' + i)),
			Geometry:   p,
			Attributes: map[string]any{"pop": pop},
		})
	}
	path := filepath.Join(t.TempDir(), "zones.geojson")
	coll := &feature.Collection{CRS: proj.EPSG4326, Features: feats}
	require.NoError(t, geoio.WriteGeoJSON(path, coll, nil))
	return path
}

func TestClassifyCmd_PrintsBreakTable(t *testing.T) {
	old := cfg
	cfg = &config.Config{Render: config.RenderConfig{Classes: 5}}
	defer func() { cfg = old }()

	path := writeClassifyInput(t)
	require.NoError(t, classifyCmd.Flags().Set("input", path))
	require.NoError(t, classifyCmd.Flags().Set("attribute", "pop"))
	require.NoError(t, classifyCmd.Flags().Set("scheme", "equal-interval"))
	require.NoError(t, classifyCmd.Flags().Set("classes", "2"))

	var buf bytes.Buffer
	classifyCmd.SetOut(&buf)
	defer classifyCmd.SetOut(nil)

	require.NoError(t, classifyCmd.RunE(classifyCmd, nil))

	out := buf.String()
	assert.Contains(t, out, "equal-interval breaks")
	assert.Contains(t, out, "4 features, 2 classes")
	// Range 10..100 split in two: [10,55) holds three values, [55,100] one.
	assert.Contains(t, out, "55.000")
}

func TestClassifyCmd_BadScheme(t *testing.T) {
	old := cfg
	cfg = &config.Config{Render: config.RenderConfig{Classes: 5}}
	defer func() { cfg = old }()

	path := writeClassifyInput(t)
	require.NoError(t, classifyCmd.Flags().Set("input", path))
	require.NoError(t, classifyCmd.Flags().Set("attribute", "pop"))
	require.NoError(t, classifyCmd.Flags().Set("scheme", "rainbow"))

	err := classifyCmd.RunE(classifyCmd, nil)
	assert.Error(t, err)
}
