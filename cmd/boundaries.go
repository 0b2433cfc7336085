package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citymetrics/choromap/internal/boundary"
	"github.com/citymetrics/choromap/internal/feature"
	"github.com/citymetrics/choromap/internal/geoio"
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Export administrative boundaries from the PostGIS source",
	Long: `Fetches administrative outline geometries (city, county, or region level)
from the configured PostGIS boundary source, optionally filtered by
identifier, and writes them as GeoJSON for use as a render backdrop.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		level, _ := cmd.Flags().GetString("level")
		ids, _ := cmd.Flags().GetString("ids")
		out, _ := cmd.Flags().GetString("out")

		pool, err := boundaryPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		b, err := boundary.Fetch(ctx, pool, level, splitAndTrim(ids))
		if err != nil {
			return err
		}

		// Boundaries export through the same GeoJSON writer as ordinary
		// collections; the type distinction only matters in-process.
		coll := &feature.Collection{CRS: b.CRS, Features: b.Features}
		if err := geoio.WriteGeoJSON(out, coll, nil); err != nil {
			return err
		}

		zap.L().Info("boundaries exported",
			zap.String("level", level),
			zap.Int("features", len(b.Features)),
			zap.String("out", out),
		)
		return nil
	},
}

func init() {
	boundariesCmd.Flags().String("level", "", "admin level: "+strings.Join(boundary.Levels(), ", "))
	boundariesCmd.Flags().String("ids", "", "comma-separated boundary identifiers (all when empty)")
	boundariesCmd.Flags().String("out", "boundaries.geojson", "output GeoJSON path")
	_ = boundariesCmd.MarkFlagRequired("level")
	rootCmd.AddCommand(boundariesCmd)
}
