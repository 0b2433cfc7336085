package join

import (
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/citymetrics/choromap/internal/feature"
)

func zoneCollection(keys ...string) *feature.Collection {
	feats := make([]feature.Feature, len(keys))
	for i, key := range keys {
		p := geom.NewPolygon(geom.XY)
		_ = p.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 1, 0, 1, 1, 0, 0}))
		feats[i] = feature.Feature{
			ID:         key,
			Geometry:   p,
			Attributes: map[string]any{"zip": key, "AREA": 1000.0},
		}
	}
	return &feature.Collection{CRS: "EPSG:4326", Features: feats}
}

func casesTable() *Table {
	return &Table{
		Columns: []string{"zip", "cases", "label"},
		Records: [][]string{
			{"02115", "412", "Fenway"},
			{"02116", "388", "Back Bay"},
		},
	}
}

func TestApply(t *testing.T) {
	coll := zoneCollection("02115", "02116")

	joined, err := Apply(coll, casesTable(), Options{KeyColumn: "zip", KeyAttr: "zip"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := joined.Features[0].Numeric("cases")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 412 {
		t.Errorf("expected 412, got %v", got)
	}
	if joined.Features[1].Attributes["label"] != "Back Bay" {
		t.Errorf("expected label joined, got %v", joined.Features[1].Attributes["label"])
	}

	// Pre-existing attributes survive.
	if joined.Features[0].Attributes["AREA"] != 1000.0 {
		t.Error("expected original attributes preserved")
	}
	// The source collection is untouched.
	if _, ok := coll.Features[0].Attributes["cases"]; ok {
		t.Error("join must not mutate the input collection")
	}
}

func TestApply_UnmatchedFails(t *testing.T) {
	coll := zoneCollection("02115", "99999")

	_, err := Apply(coll, casesTable(), Options{KeyColumn: "zip", KeyAttr: "zip"})
	if !eris.Is(err, feature.ErrMissingAttribute) {
		t.Fatalf("expected ErrMissingAttribute, got %v", err)
	}
	if !strings.Contains(err.Error(), "feature 1") {
		t.Errorf("error should identify feature 1: %v", err)
	}
}

func TestApply_AllowMissing(t *testing.T) {
	coll := zoneCollection("02115", "99999")

	joined, err := Apply(coll, casesTable(), Options{KeyColumn: "zip", KeyAttr: "zip", AllowMissing: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := joined.Features[1].Attributes["cases"]; ok {
		t.Error("unmatched feature should pass through without table columns")
	}
}

func TestApply_MissingKeyColumn(t *testing.T) {
	coll := zoneCollection("02115")
	_, err := Apply(coll, casesTable(), Options{KeyColumn: "geoid", KeyAttr: "zip"})
	if !eris.Is(err, feature.ErrMissingAttribute) {
		t.Errorf("expected ErrMissingAttribute, got %v", err)
	}
}

func TestApply_MissingOptions(t *testing.T) {
	coll := zoneCollection("02115")
	_, err := Apply(coll, casesTable(), Options{})
	if !eris.Is(err, feature.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApply_NumericKeyAttribute(t *testing.T) {
	// DBF numeric keys arrive as float64; they must still match text table keys.
	coll := zoneCollection("x")
	coll.Features[0].Attributes["zip"] = 2115.0

	table := &Table{
		Columns: []string{"zip", "cases"},
		Records: [][]string{{"2115", "7"}},
	}
	joined, err := Apply(coll, table, Options{KeyColumn: "zip", KeyAttr: "zip"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := joined.Features[0].Numeric("cases")
	if err != nil || got != 7 {
		t.Errorf("expected cases 7, got %v (err %v)", got, err)
	}
}

func TestParseCell(t *testing.T) {
	if v := parseCell("3.14"); v != 3.14 {
		t.Errorf("expected 3.14, got %v", v)
	}
	if v := parseCell(" Fenway "); v != "Fenway" {
		t.Errorf("expected Fenway, got %v", v)
	}
	if v := parseCell("  "); v != nil {
		t.Errorf("expected nil for blank cell, got %v", v)
	}
}
