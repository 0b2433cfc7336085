package main

import (
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/citymetrics/choromap/internal/boundary"
	"github.com/citymetrics/choromap/internal/choropleth"
	"github.com/citymetrics/choromap/internal/classify"
	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/geoio"
	"github.com/citymetrics/choromap/internal/proj"
	"github.com/citymetrics/choromap/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a choropleth map",
	Long: `Reads polygon features, classifies an attribute into bins with the chosen
scheme, and renders a static map. Outputs: PNG (with legend, title, scale
bar) and/or GeoJSON styled with simplestyle fill properties. A manifest JSON
recording the run is written beside the outputs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		sourceCRS, _ := cmd.Flags().GetString("source-crs")
		attribute, _ := cmd.Flags().GetString("attribute")
		denominator, _ := cmd.Flags().GetString("denominator")
		scaleFactor, _ := cmd.Flags().GetFloat64("scale-factor")
		schemeStr, _ := cmd.Flags().GetString("scheme")
		classes, _ := cmd.Flags().GetInt("classes")
		paletteName, _ := cmd.Flags().GetString("palette")
		title, _ := cmd.Flags().GetString("title")
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		formats, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		boundaryLevel, _ := cmd.Flags().GetString("boundary-level")
		boundaryIDs, _ := cmd.Flags().GetString("boundary-ids")

		// Config values back the flags where flags were not given.
		if classes == 0 {
			classes = cfg.Render.Classes
		}
		if paletteName == "" {
			paletteName = cfg.Render.Palette
		}
		if width == 0 {
			width = cfg.Render.Width
		}
		if height == 0 {
			height = cfg.Render.Height
		}

		scheme, err := classify.ParseScheme(schemeStr)
		if err != nil {
			return err
		}

		coll, err := loadCollection(input, sourceCRS)
		if err != nil {
			return err
		}

		log := zap.L().With(zap.String("command", "render"), zap.String("input", input))
		log.Info("features loaded", zap.Int("count", len(coll.Features)))

		ramp, err := resolveRamp(paletteName, cfg.Render.PaletteFile, classes)
		if err != nil {
			return err
		}

		result, err := choropleth.MapCollection(coll, choropleth.Options{
			Attribute:   attribute,
			Denominator: denominator,
			ScaleFactor: scaleFactor,
			Scheme:      scheme,
			Classes:     classes,
			Ramp:        ramp,
		})
		if err != nil {
			return err
		}

		var backdrop *feature.Boundary
		if boundaryLevel != "" {
			pool, err := boundaryPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			backdrop, err = boundary.Fetch(ctx, pool, boundaryLevel, splitAndTrim(boundaryIDs))
			if err != nil {
				return err
			}
		}

		manifest := render.NewManifest()
		manifest.Input = input
		manifest.Attribute = attribute
		manifest.Denominator = denominator
		manifest.ScaleFactor = scaleFactor
		manifest.Scheme = scheme
		manifest.Classes = classes
		manifest.Palette = paletteName
		manifest.Breaks = result.Bins

		base := strings.TrimSuffix(out, filepath.Ext(out))
		if base == "" {
			base = "choropleth"
		}

		g, _ := errgroup.WithContext(ctx)
		for _, format := range splitAndTrim(formats) {
			switch format {
			case "png":
				path := base + ".png"
				manifest.Outputs = append(manifest.Outputs, path)
				g.Go(func() error {
					projected, err := proj.Reproject(coll, proj.EPSG3857)
					if err != nil {
						return err
					}
					var projBackdrop *feature.Boundary
					if backdrop != nil {
						projBackdrop, err = proj.ReprojectBoundary(backdrop, proj.EPSG3857)
						if err != nil {
							return err
						}
					}
					return render.PNG(path, projected, result.Colors, projBackdrop, render.Options{
						Width:       width,
						Height:      height,
						Title:       title,
						Legend:      result.Legend(),
						LegendTitle: legendTitle(attribute, denominator),
						ScaleBar:    true,
					})
				})
			case "geojson":
				path := base + ".geojson"
				manifest.Outputs = append(manifest.Outputs, path)
				g.Go(func() error {
					return geoio.WriteGeoJSON(path, coll, &geoio.Style{
						Colors:      result.Colors,
						FillOpacity: cfg.Render.FillOpacity,
						Stroke:      "#4d4d4d",
					})
				})
			default:
				return eris.Errorf("choromap: unknown output format %q", format)
			}
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if err := manifest.Write(base + ".manifest.json"); err != nil {
			return err
		}

		log.Info("render complete",
			zap.String("render_id", manifest.RenderID),
			zap.Strings("outputs", manifest.Outputs),
		)
		return nil
	},
}

func legendTitle(attribute, denominator string) string {
	if denominator != "" {
		return attribute + " / " + denominator
	}
	return attribute
}

func init() {
	renderCmd.Flags().String("input", "", "input shapefile (.shp) or GeoJSON file")
	renderCmd.Flags().String("source-crs", "", "CRS of shapefile input (default EPSG:4326)")
	renderCmd.Flags().String("attribute", "", "numeric attribute to map")
	renderCmd.Flags().String("denominator", "", "attribute to normalize by (e.g. AREA for density)")
	renderCmd.Flags().Float64("scale-factor", 1, "denominator scale (e.g. 1e6 for m² to km²)")
	renderCmd.Flags().String("scheme", "", "classification scheme: quantile, equal-interval, or natural-breaks (required)")
	renderCmd.Flags().Int("classes", 0, "number of classes")
	renderCmd.Flags().String("palette", "", "color ramp name")
	renderCmd.Flags().String("title", "", "map title")
	renderCmd.Flags().Int("width", 0, "canvas width in pixels")
	renderCmd.Flags().Int("height", 0, "canvas height in pixels")
	renderCmd.Flags().String("format", "png", "comma-separated output formats: png, geojson")
	renderCmd.Flags().String("out", "choropleth", "output base path (extension added per format)")
	renderCmd.Flags().String("boundary-level", "", "admin boundary backdrop level: city, county, or region")
	renderCmd.Flags().String("boundary-ids", "", "comma-separated boundary identifiers")
	_ = renderCmd.MarkFlagRequired("input")
	_ = renderCmd.MarkFlagRequired("attribute")
	_ = renderCmd.MarkFlagRequired("scheme")
	rootCmd.AddCommand(renderCmd)
}
