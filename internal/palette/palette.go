// Package palette maps classified values to fill colors. Built-in ramps are
// sampled from the usual cartographic color schemes; custom ramps can be
// loaded from a YAML file.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/citymetrics/choromap/internal/classify"
	"github.com/citymetrics/choromap/internal/feature"
)

// builtins holds the color stops for each named ramp, dark-to-light order
// reversed so low classes render light and high classes dark.
var builtins = map[string][]string{
	"viridis": {"#440154", "#46327e", "#365c8d", "#277f8e", "#1fa187", "#4ac16d", "#a0da39", "#fde725"},
	"ylorrd":  {"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"},
	"blues":   {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#084594"},
	"greens":  {"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476", "#41ab5d", "#238b45", "#005a32"},
	"orrd":    {"#fff7ec", "#fee8c8", "#fdd49e", "#fdbb84", "#fc8d59", "#ef6548", "#d7301f", "#990000"},
	"rdbu":    {"#b2182b", "#d6604d", "#f4a582", "#fddbc7", "#d1e5f0", "#92c5de", "#4393c3", "#2166ac"},
	"greys":   {"#ffffff", "#f0f0f0", "#d9d9d9", "#bdbdbd", "#969696", "#737373", "#525252", "#252525"},
}

// Names returns the built-in ramp names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ramp returns k colors sampled from the named built-in ramp by linear
// interpolation over its stops.
func Ramp(name string, k int) ([]color.Color, error) {
	stops, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "palette: unknown ramp %q", name)
	}
	return sample(stops, k)
}

// FromHex builds a ramp from explicit hex color strings, k colors sampled
// across them.
func FromHex(stops []string, k int) ([]color.Color, error) {
	return sample(stops, k)
}

func sample(stops []string, k int) ([]color.Color, error) {
	if k < 1 {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "palette: class count %d", k)
	}
	if len(stops) == 0 {
		return nil, eris.Wrap(feature.ErrInvalidInput, "palette: empty ramp")
	}

	parsed := make([]color.RGBA, len(stops))
	for i, s := range stops {
		c, err := ParseHex(s)
		if err != nil {
			return nil, err
		}
		parsed[i] = c
	}

	out := make([]color.Color, k)
	if k == 1 {
		out[0] = parsed[len(parsed)-1]
		return out, nil
	}
	for i := 0; i < k; i++ {
		t := float64(i) / float64(k-1) * float64(len(parsed)-1)
		lo := int(math.Floor(t))
		hi := lo + 1
		if hi >= len(parsed) {
			out[i] = parsed[len(parsed)-1]
			continue
		}
		out[i] = lerp(parsed[lo], parsed[hi], t-float64(lo))
	}
	return out, nil
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// ParseHex parses a #rrggbb color string.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, eris.Wrapf(feature.ErrInvalidInput, "palette: bad hex color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, eris.Wrapf(feature.ErrInvalidInput, "palette: bad hex color %q", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexString formats a color as #rrggbb for GeoJSON simplestyle output.
func HexString(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Colorize returns the ramp color for the bin containing v. It is total for
// finite inputs: values below all bins clamp to the first color, values
// above to the last, and the bin index clamps to the ramp length.
func Colorize(v float64, bins []classify.Interval, ramp []color.Color) color.Color {
	last := len(ramp) - 1
	if len(bins) == 0 || v < bins[0].Lower {
		return ramp[0]
	}
	for i, bin := range bins {
		if bin.Contains(v, i == len(bins)-1) {
			if i > last {
				return ramp[last]
			}
			return ramp[i]
		}
	}
	return ramp[last]
}

// File is the on-disk shape of a custom palette definition.
type File struct {
	Palettes map[string][]string `yaml:"palettes"`
}

// LoadFile reads custom ramps from a YAML palette file. Loaded names shadow
// built-ins of the same name for the Lookup call that receives the file.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "palette: read %s", path)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "palette: parse %s", path)
	}
	if len(f.Palettes) == 0 {
		return nil, eris.Wrapf(feature.ErrInvalidInput, "palette: %s defines no palettes", path)
	}
	return &f, nil
}

// Lookup resolves a ramp by name against an optional custom file, falling
// back to built-ins.
func Lookup(name string, custom *File, k int) ([]color.Color, error) {
	if custom != nil {
		if stops, ok := custom.Palettes[strings.ToLower(name)]; ok {
			return sample(stops, k)
		}
	}
	return Ramp(name, k)
}
