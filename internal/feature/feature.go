// Package feature holds the in-memory model for polygon features and
// feature collections. Features are loaded once and never mutated:
// transformations return new collections.
package feature

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Sentinel errors surfaced by attribute and classification operations.
// Callers test with eris.Is.
var (
	// ErrDivision is returned when a normalization denominator is zero or absent.
	ErrDivision = eris.New("feature: division by zero or missing denominator")

	// ErrInvalidInput is returned for empty value sets or non-positive class counts.
	ErrInvalidInput = eris.New("feature: invalid input")

	// ErrMissingAttribute is returned when a referenced attribute is absent
	// or non-numeric on a feature.
	ErrMissingAttribute = eris.New("feature: missing attribute")
)

// Feature is one polygon record with its attribute map.
type Feature struct {
	ID         string
	Geometry   geom.T
	Attributes map[string]any
}

// Numeric returns the named attribute as a float64. String values are
// parsed, which covers DBF fields where everything arrives as text.
func (f *Feature) Numeric(name string) (float64, error) {
	v, ok := f.Attributes[name]
	if !ok || v == nil {
		return 0, eris.Wrapf(ErrMissingAttribute, "attribute %q", name)
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, eris.Wrapf(ErrMissingAttribute, "attribute %q is not numeric (%q)", name, n)
		}
		return parsed, nil
	default:
		return 0, eris.Wrapf(ErrMissingAttribute, "attribute %q has unsupported type %T", name, v)
	}
}

// Has reports whether the named attribute is present and non-nil.
func (f *Feature) Has(name string) bool {
	v, ok := f.Attributes[name]
	return ok && v != nil
}

// Collection is an ordered sequence of features sharing one CRS.
type Collection struct {
	CRS      string
	Features []Feature
}

// Boundary is a collection of administrative outlines used only as a
// rendering backdrop. It is a distinct type so it cannot be passed where
// an attribute-bearing collection is expected.
type Boundary struct {
	CRS      string
	Features []Feature
}

// Values extracts the named numeric attribute from every feature in order.
// It fails on the first feature missing the attribute, identifying its index.
func (c *Collection) Values(attr string) ([]float64, error) {
	vals := make([]float64, 0, len(c.Features))
	for i := range c.Features {
		v, err := c.Features[i].Numeric(attr)
		if err != nil {
			return nil, eris.Wrapf(err, "feature %d", i)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// AttributeNames returns the union of attribute names across all features,
// sorted for stable output.
func (c *Collection) AttributeNames() []string {
	seen := map[string]bool{}
	var names []string
	for i := range c.Features {
		for name := range c.Features[i].Attributes {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
