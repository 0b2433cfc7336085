package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citymetrics/choromap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "choromap",
	Short: "Static choropleth maps from polygon data",
	Long:  "Loads shapefiles or GeoJSON, joins attribute tables, reprojects, classifies values into bins, and renders thematic maps with legend, title, and scale bar.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
