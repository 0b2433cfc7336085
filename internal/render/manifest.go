package render

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/citymetrics/choromap/internal/classify"
)

// Manifest records how a map was produced, written beside the image so a
// rendered artifact stays reproducible.
type Manifest struct {
	RenderID    string              `json:"render_id"`
	CreatedAt   time.Time           `json:"created_at"`
	Input       string              `json:"input"`
	Attribute   string              `json:"attribute"`
	Denominator string              `json:"denominator,omitempty"`
	ScaleFactor float64             `json:"scale_factor,omitempty"`
	Scheme      classify.Scheme     `json:"scheme"`
	Classes     int                 `json:"classes"`
	Palette     string              `json:"palette"`
	Breaks      []classify.Interval `json:"breaks"`
	Outputs     []string            `json:"outputs"`
}

// NewManifest stamps a manifest with a fresh render ID and timestamp.
func NewManifest() Manifest {
	return Manifest{
		RenderID:  uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
}

// Write serializes the manifest as indented JSON.
func (m Manifest) Write(path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrap(err, "render: marshal manifest")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrapf(err, "render: write manifest %s", path)
	}
	return nil
}
