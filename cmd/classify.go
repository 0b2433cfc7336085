package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/citymetrics/choromap/internal/choropleth"
	"github.com/citymetrics/choromap/internal/classify"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Print the classification break table for an attribute",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		sourceCRS, _ := cmd.Flags().GetString("source-crs")
		attribute, _ := cmd.Flags().GetString("attribute")
		denominator, _ := cmd.Flags().GetString("denominator")
		scaleFactor, _ := cmd.Flags().GetFloat64("scale-factor")
		schemeStr, _ := cmd.Flags().GetString("scheme")
		classes, _ := cmd.Flags().GetInt("classes")

		if classes == 0 {
			classes = cfg.Render.Classes
		}

		scheme, err := classify.ParseScheme(schemeStr)
		if err != nil {
			return err
		}

		coll, err := loadCollection(input, sourceCRS)
		if err != nil {
			return err
		}

		var values []float64
		if denominator != "" {
			values = make([]float64, 0, len(coll.Features))
			for i := range coll.Features {
				v, err := choropleth.Normalize(&coll.Features[i], attribute, denominator, scaleFactor)
				if err != nil {
					return err
				}
				values = append(values, v)
			}
		} else {
			values, err = coll.Values(attribute)
			if err != nil {
				return err
			}
		}

		bins, err := classify.Breaks(values, scheme, classes)
		if err != nil {
			return err
		}

		counts := make([]int, len(bins))
		for _, v := range values {
			for i, bin := range bins {
				if bin.Contains(v, i == len(bins)-1) {
					counts[i]++
					break
				}
			}
		}

		p := message.NewPrinter(language.English)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s breaks for %q (%d features, %d classes)\n\n",
			scheme, attribute, len(values), classes)
		fmt.Fprintf(out, "%-7s %15s %15s %8s\n", "class", "lower", "upper", "count")
		for i, bin := range bins {
			p.Fprintf(out, "%-7d %15.3f %15.3f %8d\n", i+1, bin.Lower, bin.Upper, counts[i])
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("input", "", "input shapefile (.shp) or GeoJSON file")
	classifyCmd.Flags().String("source-crs", "", "CRS of shapefile input (default EPSG:4326)")
	classifyCmd.Flags().String("attribute", "", "numeric attribute to classify")
	classifyCmd.Flags().String("denominator", "", "attribute to normalize by")
	classifyCmd.Flags().Float64("scale-factor", 1, "denominator scale")
	classifyCmd.Flags().String("scheme", "", "classification scheme: quantile, equal-interval, or natural-breaks (required)")
	classifyCmd.Flags().Int("classes", 0, "number of classes")
	_ = classifyCmd.MarkFlagRequired("input")
	_ = classifyCmd.MarkFlagRequired("attribute")
	_ = classifyCmd.MarkFlagRequired("scheme")
	rootCmd.AddCommand(classifyCmd)
}
