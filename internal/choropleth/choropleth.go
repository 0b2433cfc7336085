// Package choropleth converts raw numeric attributes on a feature
// collection into per-feature fill colors: optional density normalization,
// binned classification, then palette lookup. Everything here is a pure
// function over in-memory data; failures surface immediately with the
// offending feature index and nothing is retried.
package choropleth

import (
	"image/color"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/citymetrics/choromap/internal/classify"
	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/palette"
)

// Normalize computes numerator / (denominator / scaleFactor) for one
// feature, e.g. population density per km² from a population count and an
// area in m² with scaleFactor 1e6. A zero or absent denominator fails with
// feature.ErrDivision; an absent or non-numeric numerator fails with
// feature.ErrMissingAttribute.
func Normalize(f *feature.Feature, numeratorAttr, denominatorAttr string, scaleFactor float64) (float64, error) {
	if scaleFactor <= 0 {
		return 0, eris.Wrapf(feature.ErrInvalidInput, "choropleth: scale factor %v", scaleFactor)
	}

	num, err := f.Numeric(numeratorAttr)
	if err != nil {
		return 0, err
	}

	if !f.Has(denominatorAttr) {
		return 0, eris.Wrapf(feature.ErrDivision, "denominator attribute %q absent", denominatorAttr)
	}
	den, err := f.Numeric(denominatorAttr)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, eris.Wrapf(feature.ErrDivision, "denominator attribute %q is zero", denominatorAttr)
	}

	return num / (den / scaleFactor), nil
}

// Options configures a collection-level mapping run. Scheme has no default
// and must be set explicitly.
type Options struct {
	Attribute   string
	Denominator string  // when set, values are normalized by this attribute
	ScaleFactor float64 // denominator scale, defaults to 1
	Scheme      classify.Scheme
	Classes     int
	Ramp        []color.Color
}

// Result holds the derived quantities for a mapped collection, one entry
// per feature in collection order.
type Result struct {
	Values []float64
	Bins   []classify.Interval
	Colors []color.Color
	Ramp   []color.Color
}

// MapCollection computes one fill color per feature. It either succeeds for
// the whole collection or fails with an error naming the first offending
// feature index; no partial results are returned.
func MapCollection(c *feature.Collection, opts Options) (*Result, error) {
	if len(opts.Ramp) == 0 {
		return nil, eris.Wrap(feature.ErrInvalidInput, "choropleth: empty palette")
	}

	scale := opts.ScaleFactor
	if scale == 0 {
		scale = 1
	}

	values := make([]float64, 0, len(c.Features))
	for i := range c.Features {
		var v float64
		var err error
		if opts.Denominator != "" {
			v, err = Normalize(&c.Features[i], opts.Attribute, opts.Denominator, scale)
		} else {
			v, err = c.Features[i].Numeric(opts.Attribute)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "choropleth: feature %d", i)
		}
		values = append(values, v)
	}

	bins, err := classify.Breaks(values, opts.Scheme, opts.Classes)
	if err != nil {
		return nil, err
	}

	colors := make([]color.Color, len(values))
	for i, v := range values {
		colors[i] = palette.Colorize(v, bins, opts.Ramp)
	}

	return &Result{Values: values, Bins: bins, Colors: colors, Ramp: opts.Ramp}, nil
}

// LegendEntry is one swatch row: the bin, its color, how many features fell
// in it, and a formatted range label.
type LegendEntry struct {
	Bin   classify.Interval
	Color color.Color
	Count int
	Label string
}

// Legend derives legend rows from a mapping result, bins in ascending order.
func (r *Result) Legend() []LegendEntry {
	p := message.NewPrinter(language.English)

	entries := make([]LegendEntry, len(r.Bins))
	for i, bin := range r.Bins {
		// Same bin-index-clamped-to-ramp rule as Colorize.
		ci := i
		if ci > len(r.Ramp)-1 {
			ci = len(r.Ramp) - 1
		}
		entries[i] = LegendEntry{
			Bin:   bin,
			Color: r.Ramp[ci],
			Label: p.Sprintf("%.1f to %.1f", bin.Lower, bin.Upper),
		}
	}

	for _, v := range r.Values {
		for i, bin := range r.Bins {
			if bin.Contains(v, i == len(r.Bins)-1) {
				entries[i].Count++
				break
			}
		}
	}
	return entries
}
