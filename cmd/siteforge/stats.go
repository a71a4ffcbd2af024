package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/siteforge/internal/config"
	"github.com/jonathan/siteforge/internal/observability"
	"github.com/jonathan/siteforge/internal/telemetry"
)

var statsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Print telemetry dataset statistics",
	RunE:  runStatsCmd,
}

var statsConfigPath string

func init() {
	statsCommand.Flags().StringVar(&statsConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(statsCommand)
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var cfg config.Config
	if statsConfigPath != "" {
		loaded, err := config.LoadConfig(statsConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	records, err := telemetry.Load(cfg.TelemetryPath())
	if err != nil {
		return fmt.Errorf("no telemetry to summarize: %w", err)
	}
	summary := telemetry.Summarize(records)

	byLabel := make(map[string]int, len(summary.ByStrategy))
	for tier, count := range summary.ByStrategy {
		byLabel[tier.String()] = count
	}

	observability.NewPrinter(os.Stdout).PrintTelemetrySummary(byLabel, summary.Total, summary.Valid, summary.MeanPathScore)
	return nil
}
