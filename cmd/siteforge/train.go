package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/siteforge/internal/config"
	"github.com/jonathan/siteforge/internal/training"
)

var trainCommand = &cobra.Command{
	Use:   "train",
	Short: "Train a strategy model from the telemetry log",
	Long: `Fits a strategy classifier against the telemetry log and publishes a
versioned model artifact. A model that fails the held-out quality gates is
reported but never written.`,
	RunE: runTrainCmd,
}

var (
	trainConfigPath string
	trainHoldout    float64
	trainMinSamples int
)

func init() {
	trainCommand.Flags().StringVar(&trainConfigPath, "config", "", "Path to config.json file")
	trainCommand.Flags().Float64Var(&trainHoldout, "holdout", 0.2, "Held-out fraction for evaluation")
	trainCommand.Flags().IntVar(&trainMinSamples, "min-samples", 20, "Minimum telemetry rows required")
	rootCmd.AddCommand(trainCommand)
}

func runTrainCmd(_ *cobra.Command, _ []string) error {
	var cfg config.Config
	if trainConfigPath != "" {
		loaded, err := config.LoadConfig(trainConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())

	result, err := training.Train(training.Options{
		TelemetryPath:   cfg.TelemetryPath(),
		OutputDir:       cfg.ModelDir,
		HoldoutFraction: trainHoldout,
		MinSamples:      trainMinSamples,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Trained on %d rows, evaluated on %d\n", result.TrainingSamples, result.HoldoutSamples)
	_, _ = fmt.Fprintf(os.Stdout, "Macro F1: %.3f  Precision: %.3f  Recall: %.3f\n",
		result.Metrics.MacroF1, result.Metrics.MacroPrecision, result.Metrics.MacroRecall)

	if !result.Promoted {
		return fmt.Errorf("model failed quality gates (need F1 >= 0.60, precision >= 0.55, recall >= 0.55); nothing published")
	}

	_, _ = fmt.Fprintf(os.Stdout, "Published %s\n", result.ArtifactPath)
	return nil
}
