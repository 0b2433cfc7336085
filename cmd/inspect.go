package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/citymetrics/choromap/internal/feature"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List attributes, value ranges, and CRS of a polygon file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		sourceCRS, _ := cmd.Flags().GetString("source-crs")

		coll, err := loadCollection(input, sourceCRS)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", input)
		fmt.Fprintf(out, "  crs:      %s\n", coll.CRS)
		fmt.Fprintf(out, "  features: %d\n\n", len(coll.Features))
		fmt.Fprintf(out, "%-20s %-8s %15s %15s %8s\n", "attribute", "type", "min", "max", "present")

		for _, name := range coll.AttributeNames() {
			min, max, numericCount, present := attrStats(coll, name)
			if numericCount > 0 {
				fmt.Fprintf(out, "%-20s %-8s %15.3f %15.3f %8d\n", name, "numeric", min, max, present)
			} else {
				fmt.Fprintf(out, "%-20s %-8s %15s %15s %8d\n", name, "text", "-", "-", present)
			}
		}
		return nil
	},
}

func attrStats(c *feature.Collection, name string) (min, max float64, numericCount, present int) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for i := range c.Features {
		if !c.Features[i].Has(name) {
			continue
		}
		present++
		v, err := c.Features[i].Numeric(name)
		if err != nil {
			continue
		}
		numericCount++
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, numericCount, present
}

func init() {
	inspectCmd.Flags().String("input", "", "input shapefile (.shp) or GeoJSON file")
	inspectCmd.Flags().String("source-crs", "", "CRS of shapefile input (default EPSG:4326)")
	_ = inspectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(inspectCmd)
}
