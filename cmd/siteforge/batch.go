package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/siteforge/internal/config"
	"github.com/jonathan/siteforge/internal/content"
	"github.com/jonathan/siteforge/internal/orchestrator"
	"github.com/jonathan/siteforge/internal/types"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Build one page per configured theme concurrently",
	Long: `Builds the same content document once per configured theme. Builds run in
parallel; each has its own attempt state, so one theme's healing never
affects another's.`,
	RunE: runBatchCmd,
}

var (
	batchConfigPath  string
	batchInput       string
	batchAudit       bool
	batchVision      bool
	batchPredict     bool
	batchMaxAttempts int
	batchParallelism int
	batchAPIKey      string
	batchVerbose     bool
)

func init() {
	batchCommand.Flags().StringVar(&batchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	batchCommand.Flags().StringVarP(&batchInput, "input", "i", "", "Path to a content document JSON file (defaults to the fallback document)")
	batchCommand.Flags().BoolVar(&batchAudit, "audit", true, "Audit the rendered layouts and heal on rejection")
	batchCommand.Flags().BoolVar(&batchVision, "vision", false, "Enable the vision-model review phase (requires API key)")
	batchCommand.Flags().BoolVar(&batchPredict, "predict", false, "Consult the trained strategy model before the first render")
	batchCommand.Flags().IntVar(&batchMaxAttempts, "max-attempts", 0, "Maximum build attempts per theme")
	batchCommand.Flags().IntVar(&batchParallelism, "parallelism", 3, "Maximum concurrent builds")
	batchCommand.Flags().StringVar(&batchAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	batchCommand.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(batchCommand)
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cfg config.Config
	if batchConfigPath != "" {
		loaded, err := config.LoadConfig(batchConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = batchMaxAttempts
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = batchAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = batchVerbose
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := batchContent(cfg)
	if err != nil {
		return err
	}

	pipe, err := newPipeline(cfg, batchVision, batchPredict)
	if err != nil {
		return err
	}
	defer pipe.close()

	themes := pipe.renderer.Themes()
	if len(themes) == 0 {
		return fmt.Errorf("no themes configured in %s", cfg.ThemesPath)
	}

	var mu sync.Mutex
	results := make(map[string]*types.BuildResult, len(themes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)
	for _, theme := range themes {
		g.Go(func() error {
			result := pipe.orchestrator.Run(gctx, orchestrator.Request{
				Content:        doc,
				Theme:          theme,
				OutputFilename: theme + ".html",
				MaxAttempts:    cfg.MaxAttempts,
				AuditEnabled:   batchAudit,
			})
			mu.Lock()
			results[theme] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failures := 0
	for _, theme := range themes {
		result := results[theme]
		if result.Succeeded() {
			_, _ = fmt.Fprintf(os.Stdout, "✅ %-12s %d attempt(s)  %s\n", theme, result.Attempts, result.OutputPath)
		} else {
			failures++
			_, _ = fmt.Fprintf(os.Stdout, "❌ %-12s %s after %d attempt(s)\n", theme, result.Status, result.Attempts)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d themes did not build successfully", failures, len(themes))
	}
	return nil
}

func batchContent(cfg config.Config) (*types.ContentDocument, error) {
	if batchInput != "" {
		return content.LoadDocument(cfg.SchemaPath, batchInput)
	}
	gen := content.NewGenerator(nil, content.Options{
		SchemaPath:   cfg.SchemaPath,
		FallbackPath: cfg.FallbackPath,
	})
	return gen.Fallback()
}
