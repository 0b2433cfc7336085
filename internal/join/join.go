// Package join merges external attribute tables (CSV, XLSX, SQLite) onto a
// feature collection by key. The input collection is never mutated: joined
// features get fresh attribute maps.
package join

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/citymetrics/choromap/internal/feature"
)

// Options configures a join.
type Options struct {
	KeyColumn    string // key column in the attribute table
	KeyAttr      string // matching key attribute on the features
	AllowMissing bool   // pass unmatched features through instead of failing
}

// Table is a loaded attribute table: a header and string records, the common
// denominator of all three sources.
type Table struct {
	Columns []string
	Records [][]string
}

// Apply joins the table onto the collection. Numeric-looking cell values
// parse to float64 so they can feed classification directly. Fails on the
// first unmatched feature (with its index) unless AllowMissing is set.
func Apply(c *feature.Collection, t *Table, opts Options) (*feature.Collection, error) {
	if opts.KeyColumn == "" || opts.KeyAttr == "" {
		return nil, eris.Wrap(feature.ErrInvalidInput, "join: key column and key attribute are required")
	}

	keyIdx := -1
	for i, col := range t.Columns {
		if strings.EqualFold(col, opts.KeyColumn) {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return nil, eris.Wrapf(feature.ErrMissingAttribute, "join: key column %q not in table", opts.KeyColumn)
	}

	byKey := make(map[string][]string, len(t.Records))
	for _, rec := range t.Records {
		if keyIdx < len(rec) {
			byKey[strings.TrimSpace(rec[keyIdx])] = rec
		}
	}

	feats := make([]feature.Feature, len(c.Features))
	var unmatched int
	for i := range c.Features {
		key, err := attrKey(&c.Features[i], opts.KeyAttr)
		if err != nil {
			return nil, eris.Wrapf(err, "join: feature %d", i)
		}

		attrs := make(map[string]any, len(c.Features[i].Attributes)+len(t.Columns))
		for k, v := range c.Features[i].Attributes {
			attrs[k] = v
		}

		rec, ok := byKey[key]
		if !ok {
			if !opts.AllowMissing {
				return nil, eris.Wrapf(feature.ErrMissingAttribute,
					"join: feature %d key %q has no table row", i, key)
			}
			unmatched++
		} else {
			for j, col := range t.Columns {
				if j == keyIdx || j >= len(rec) {
					continue
				}
				attrs[col] = parseCell(rec[j])
			}
		}

		feats[i] = feature.Feature{
			ID:         c.Features[i].ID,
			Geometry:   c.Features[i].Geometry,
			Attributes: attrs,
		}
	}

	if unmatched > 0 {
		zap.L().Warn("join: features without matching table rows",
			zap.String("key", opts.KeyAttr),
			zap.Int("unmatched", unmatched),
		)
	}

	return &feature.Collection{CRS: c.CRS, Features: feats}, nil
}

// attrKey renders the feature's key attribute as a string. Integral floats
// format without a decimal point so numeric DBF keys match text table keys.
func attrKey(f *feature.Feature, attr string) (string, error) {
	v, ok := f.Attributes[attr]
	if !ok || v == nil {
		return "", eris.Wrapf(feature.ErrMissingAttribute, "attribute %q", attr)
	}
	switch k := v.(type) {
	case string:
		return strings.TrimSpace(k), nil
	case float64:
		if k == float64(int64(k)) {
			return strconv.FormatInt(int64(k), 10), nil
		}
		return strconv.FormatFloat(k, 'f', -1, 64), nil
	default:
		return strings.TrimSpace(fmt.Sprint(v)), nil
	}
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
