// Package render draws a classified feature collection to a static PNG:
// filled polygons, optional boundary backdrop, title, legend, and scale bar.
// Collections must already be projected to Web Mercator; the renderer is
// deliberately ignorant of CRS math beyond the scale-bar correction.
package render

import (
	"image/color"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/citymetrics/choromap/internal/choropleth"
	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/proj"
)

// Options configures one rendered map.
type Options struct {
	Width       int
	Height      int
	Title       string
	Legend      []choropleth.LegendEntry
	LegendTitle string
	ScaleBar    bool
	Background  color.Color // defaults to white
	Stroke      color.Color // polygon outline, defaults to 30% gray
	StrokeWidth float64     // defaults to 0.8
}

const canvasPadding = 24.0

// PNG renders the collection to path with one fill color per feature, in
// collection order. The collection (and backdrop, if any) must be in
// EPSG:3857.
func PNG(path string, c *feature.Collection, colors []color.Color, backdrop *feature.Boundary, opts Options) error {
	if len(colors) != len(c.Features) {
		return eris.Wrapf(feature.ErrInvalidInput,
			"render: %d colors for %d features", len(colors), len(c.Features))
	}
	if c.CRS != proj.EPSG3857 {
		return eris.Wrapf(feature.ErrInvalidInput, "render: collection CRS %s, want %s", c.CRS, proj.EPSG3857)
	}
	if backdrop != nil && backdrop.CRS != proj.EPSG3857 {
		return eris.Wrapf(feature.ErrInvalidInput, "render: backdrop CRS %s, want %s", backdrop.CRS, proj.EPSG3857)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return eris.Wrapf(feature.ErrInvalidInput, "render: canvas %dx%d", opts.Width, opts.Height)
	}

	bounds := collectionBounds(c, backdrop)
	if bounds == nil {
		return eris.Wrap(feature.ErrInvalidInput, "render: no drawable geometry")
	}
	fit := fitTransform(bounds, float64(opts.Width), float64(opts.Height))

	dc := gg.NewContext(opts.Width, opts.Height)

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	dc.SetColor(bg)
	dc.Clear()

	stroke := opts.Stroke
	if stroke == nil {
		stroke = color.RGBA{R: 77, G: 77, B: 77, A: 255}
	}
	strokeWidth := opts.StrokeWidth
	if strokeWidth == 0 {
		strokeWidth = 0.8
	}

	dc.SetFillRule(gg.FillRuleEvenOdd)

	for i := range c.Features {
		tracePolygons(dc, c.Features[i].Geometry, fit)
		dc.SetColor(colors[i])
		dc.FillPreserve()
		dc.SetColor(stroke)
		dc.SetLineWidth(strokeWidth)
		dc.Stroke()
	}

	if backdrop != nil {
		for i := range backdrop.Features {
			tracePolygons(dc, backdrop.Features[i].Geometry, fit)
			dc.SetColor(color.RGBA{R: 26, G: 26, B: 26, A: 255})
			dc.SetLineWidth(strokeWidth * 2.2)
			dc.Stroke()
		}
	}

	if opts.Title != "" {
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(opts.Title, float64(opts.Width)/2, canvasPadding/2+6, 0.5, 0.5)
	}

	if len(opts.Legend) > 0 {
		drawLegend(dc, opts)
	}

	if opts.ScaleBar {
		drawScaleBar(dc, bounds, fit, opts)
	}

	if err := dc.SavePNG(path); err != nil {
		return eris.Wrapf(err, "render: save %s", path)
	}

	zap.L().Info("map rendered",
		zap.String("path", path),
		zap.Int("features", len(c.Features)),
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)
	return nil
}

// transform maps Web Mercator meters to canvas pixels, preserving aspect
// ratio and flipping Y.
type transform struct {
	scale float64
	minX  float64
	maxY  float64
	offX  float64
	offY  float64
}

func (t transform) apply(x, y float64) (float64, float64) {
	return t.offX + (x-t.minX)*t.scale, t.offY + (t.maxY-y)*t.scale
}

func fitTransform(b *geom.Bounds, w, h float64) transform {
	innerW := w - 2*canvasPadding
	innerH := h - 2*canvasPadding

	spanX := b.Max(0) - b.Min(0)
	spanY := b.Max(1) - b.Min(1)
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	scale := math.Min(innerW/spanX, innerH/spanY)

	// Center the map inside the padded area.
	offX := canvasPadding + (innerW-spanX*scale)/2
	offY := canvasPadding + (innerH-spanY*scale)/2

	return transform{scale: scale, minX: b.Min(0), maxY: b.Max(1), offX: offX, offY: offY}
}

func collectionBounds(c *feature.Collection, backdrop *feature.Boundary) *geom.Bounds {
	var b *geom.Bounds
	extend := func(g geom.T) {
		if g == nil {
			return
		}
		if b == nil {
			b = g.Bounds().Clone()
		} else {
			b.Extend(g)
		}
	}
	for i := range c.Features {
		extend(c.Features[i].Geometry)
	}
	if backdrop != nil {
		for i := range backdrop.Features {
			extend(backdrop.Features[i].Geometry)
		}
	}
	return b
}

// tracePolygons adds every ring of a Polygon/MultiPolygon to the current
// path as closed subpaths. Even-odd filling then leaves holes unfilled.
func tracePolygons(dc *gg.Context, g geom.T, fit transform) {
	dc.ClearPath()
	switch t := g.(type) {
	case *geom.Polygon:
		traceRings(dc, t.FlatCoords(), t.Layout().Stride(), offsetsToRanges(t.Ends(), 0), fit)
	case *geom.MultiPolygon:
		offset := 0
		for _, ends := range t.Endss() {
			traceRings(dc, t.FlatCoords(), t.Layout().Stride(), offsetsToRanges(ends, offset), fit)
			if n := len(ends); n > 0 {
				offset = ends[n-1]
			}
		}
	}
}

type ringRange struct{ start, end int }

func offsetsToRanges(ends []int, start int) []ringRange {
	ranges := make([]ringRange, 0, len(ends))
	for _, end := range ends {
		ranges = append(ranges, ringRange{start: start, end: end})
		start = end
	}
	return ranges
}

func traceRings(dc *gg.Context, flat []float64, stride int, rings []ringRange, fit transform) {
	for _, ring := range rings {
		first := true
		for i := ring.start; i+1 < ring.end; i += stride {
			x, y := fit.apply(flat[i], flat[i+1])
			if first {
				dc.NewSubPath()
				dc.MoveTo(x, y)
				first = false
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	}
}

const (
	legendSwatch  = 14.0
	legendRowGap  = 6.0
	legendPadding = 10.0
)

func drawLegend(dc *gg.Context, opts Options) {
	rows := len(opts.Legend)
	rowH := legendSwatch + legendRowGap

	boxH := float64(rows)*rowH + 2*legendPadding
	if opts.LegendTitle != "" {
		boxH += rowH
	}
	boxW := 170.0
	x := canvasPadding
	y := float64(opts.Height) - canvasPadding - boxH

	// Translucent panel behind the swatches.
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(x, y, boxW, boxH)
	dc.Fill()
	dc.SetRGBA(0.3, 0.3, 0.3, 1)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, boxW, boxH)
	dc.Stroke()

	cy := y + legendPadding
	if opts.LegendTitle != "" {
		dc.SetColor(color.Black)
		dc.DrawString(opts.LegendTitle, x+legendPadding, cy+legendSwatch-3)
		cy += rowH
	}

	for _, entry := range opts.Legend {
		dc.SetColor(entry.Color)
		dc.DrawRectangle(x+legendPadding, cy, legendSwatch, legendSwatch)
		dc.Fill()
		dc.SetRGBA(0.3, 0.3, 0.3, 1)
		dc.DrawRectangle(x+legendPadding, cy, legendSwatch, legendSwatch)
		dc.Stroke()

		dc.SetColor(color.Black)
		dc.DrawString(entry.Label, x+legendPadding+legendSwatch+8, cy+legendSwatch-3)
		cy += rowH
	}
}

// drawScaleBar draws a ground-distance bar at the bottom right. Web
// Mercator meters are inflated by 1/cos(lat), so the bar corrects by the
// cosine of the map-center latitude.
func drawScaleBar(dc *gg.Context, b *geom.Bounds, fit transform, opts Options) {
	centerY := (b.Min(1) + b.Max(1)) / 2
	lat := (2*math.Atan(math.Exp(centerY/6378137.0)) - math.Pi/2)
	metersPerPixel := (1 / fit.scale) * math.Cos(lat)

	targetPx := float64(opts.Width) * 0.2
	meters := niceDistance(metersPerPixel * targetPx)
	barPx := meters / metersPerPixel

	x := float64(opts.Width) - canvasPadding - barPx
	y := float64(opts.Height) - canvasPadding - 10

	dc.SetColor(color.Black)
	dc.SetLineWidth(2)
	dc.DrawLine(x, y, x+barPx, y)
	dc.DrawLine(x, y-4, x, y+4)
	dc.DrawLine(x+barPx, y-4, x+barPx, y+4)
	dc.Stroke()

	dc.DrawStringAnchored(formatDistance(meters), x+barPx/2, y-10, 0.5, 0.5)
}

// niceDistance rounds a distance in meters down to a 1/2/5 × 10^n value.
func niceDistance(meters float64) float64 {
	if meters <= 0 {
		return 1
	}
	exp := math.Floor(math.Log10(meters))
	base := math.Pow(10, exp)
	switch {
	case meters >= 5*base:
		return 5 * base
	case meters >= 2*base:
		return 2 * base
	default:
		return base
	}
}

func formatDistance(meters float64) string {
	if meters >= 1000 {
		return strconv.FormatFloat(meters/1000, 'f', -1, 64) + " km"
	}
	return strconv.FormatFloat(meters, 'f', -1, 64) + " m"
}
