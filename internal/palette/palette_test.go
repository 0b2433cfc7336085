package palette

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citymetrics/choromap/internal/classify"
	"github.com/citymetrics/choromap/internal/feature"
)

func TestRamp(t *testing.T) {
	for _, name := range Names() {
		for _, k := range []int{1, 3, 5, 9} {
			ramp, err := Ramp(name, k)
			require.NoError(t, err, "%s k=%d", name, k)
			assert.Len(t, ramp, k, "%s k=%d", name, k)
		}
	}
}

func TestRamp_Unknown(t *testing.T) {
	_, err := Ramp("plasma-ish", 5)
	assert.True(t, eris.Is(err, feature.ErrInvalidInput))
}

func TestRamp_Endpoints(t *testing.T) {
	// Sampling must hit the first and last stop exactly.
	ramp, err := Ramp("greys", 3)
	require.NoError(t, err)

	first, err := ParseHex("#ffffff")
	require.NoError(t, err)
	last, err := ParseHex("#252525")
	require.NoError(t, err)

	assert.Equal(t, first, ramp[0])
	assert.Equal(t, last, ramp[2])
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 128, B: 0, A: 255}, c)

	c, err = ParseHex("  440154 ")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 255}, c)

	_, err = ParseHex("#fff")
	assert.True(t, eris.Is(err, feature.ErrInvalidInput))
	_, err = ParseHex("#zzzzzz")
	assert.Error(t, err)
}

func TestHexString(t *testing.T) {
	assert.Equal(t, "#ff8000", HexString(color.RGBA{R: 255, G: 128, B: 0, A: 255}))
	assert.Equal(t, "#000000", HexString(color.Black))
}

func TestColorize(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	bins := []classify.Interval{
		{Lower: 10, Upper: 55},
		{Lower: 55, Upper: 100},
	}
	ramp := []color.Color{red, blue}

	assert.Equal(t, color.Color(red), Colorize(30, bins, ramp))
	assert.Equal(t, color.Color(blue), Colorize(55, bins, ramp))
	assert.Equal(t, color.Color(blue), Colorize(100, bins, ramp))

	// Clamping below and above the covered range.
	assert.Equal(t, color.Color(red), Colorize(-5, bins, ramp))
	assert.Equal(t, color.Color(blue), Colorize(1e9, bins, ramp))
}

func TestColorize_RampShorterThanBins(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	bins := []classify.Interval{
		{Lower: 0, Upper: 1},
		{Lower: 1, Upper: 2},
		{Lower: 2, Upper: 3},
	}
	// Bin index clamps into the ramp instead of panicking.
	assert.Equal(t, color.Color(red), Colorize(2.5, bins, []color.Color{red}))
}

func TestLoadFileAndLookup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "palettes.yaml")
	content := []byte("palettes:\n  heat:\n    - \"#ffffff\"\n    - \"#ff0000\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)

	ramp, err := Lookup("heat", f, 2)
	require.NoError(t, err)
	require.Len(t, ramp, 2)

	white, _ := ParseHex("#ffffff")
	red, _ := ParseHex("#ff0000")
	assert.Equal(t, color.Color(white), ramp[0])
	assert.Equal(t, color.Color(red), ramp[1])

	// Unknown custom names fall back to built-ins.
	ramp, err = Lookup("viridis", f, 4)
	require.NoError(t, err)
	assert.Len(t, ramp, 4)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("palettes: {}\n"), 0o644))
	_, err = LoadFile(path)
	assert.True(t, eris.Is(err, feature.ErrInvalidInput))
}
