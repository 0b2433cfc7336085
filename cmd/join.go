package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citymetrics/choromap/internal/geoio"
	"github.com/citymetrics/choromap/internal/join"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join an attribute table onto polygon features",
	Long: `Joins columns from a CSV, XLSX, or SQLite attribute table onto polygon
features by key, and writes the merged collection as GeoJSON. The table
format is inferred from the file extension (.csv, .xlsx, anything else is
opened as SQLite).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input, _ := cmd.Flags().GetString("input")
		sourceCRS, _ := cmd.Flags().GetString("source-crs")
		tablePath, _ := cmd.Flags().GetString("table")
		sheet, _ := cmd.Flags().GetString("sheet")
		dbTable, _ := cmd.Flags().GetString("db-table")
		keyColumn, _ := cmd.Flags().GetString("key-column")
		keyAttr, _ := cmd.Flags().GetString("key-attribute")
		allowMissing, _ := cmd.Flags().GetBool("allow-missing")
		out, _ := cmd.Flags().GetString("out")

		coll, err := loadCollection(input, sourceCRS)
		if err != nil {
			return err
		}

		var table *join.Table
		switch strings.ToLower(filepath.Ext(tablePath)) {
		case ".csv":
			table, err = join.ReadCSV(tablePath)
		case ".xlsx":
			table, err = join.ReadXLSX(tablePath, sheet)
		default:
			if dbTable == "" {
				return eris.New("choromap: --db-table is required for SQLite attribute tables")
			}
			table, err = join.ReadSQLite(ctx, tablePath, dbTable)
		}
		if err != nil {
			return err
		}

		joined, err := join.Apply(coll, table, join.Options{
			KeyColumn:    keyColumn,
			KeyAttr:      keyAttr,
			AllowMissing: allowMissing,
		})
		if err != nil {
			return err
		}

		if err := geoio.WriteGeoJSON(out, joined, nil); err != nil {
			return err
		}

		zap.L().Info("join complete",
			zap.String("input", input),
			zap.String("table", tablePath),
			zap.Int("features", len(joined.Features)),
			zap.String("out", out),
		)
		return nil
	},
}

func init() {
	joinCmd.Flags().String("input", "", "input shapefile (.shp) or GeoJSON file")
	joinCmd.Flags().String("source-crs", "", "CRS of shapefile input (default EPSG:4326)")
	joinCmd.Flags().String("table", "", "attribute table file (.csv, .xlsx, or SQLite db)")
	joinCmd.Flags().String("sheet", "", "XLSX sheet name (first sheet when empty)")
	joinCmd.Flags().String("db-table", "", "table name inside a SQLite database")
	joinCmd.Flags().String("key-column", "", "key column in the attribute table")
	joinCmd.Flags().String("key-attribute", "", "matching key attribute on the features")
	joinCmd.Flags().Bool("allow-missing", false, "pass features without table rows through unchanged")
	joinCmd.Flags().String("out", "joined.geojson", "output GeoJSON path")
	_ = joinCmd.MarkFlagRequired("input")
	_ = joinCmd.MarkFlagRequired("table")
	_ = joinCmd.MarkFlagRequired("key-column")
	_ = joinCmd.MarkFlagRequired("key-attribute")
	rootCmd.AddCommand(joinCmd)
}
