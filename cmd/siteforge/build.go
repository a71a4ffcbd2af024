package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/siteforge/internal/audit"
	"github.com/jonathan/siteforge/internal/config"
	"github.com/jonathan/siteforge/internal/content"
	"github.com/jonathan/siteforge/internal/escalate"
	"github.com/jonathan/siteforge/internal/llm"
	"github.com/jonathan/siteforge/internal/observability"
	"github.com/jonathan/siteforge/internal/orchestrator"
	"github.com/jonathan/siteforge/internal/predict"
	"github.com/jonathan/siteforge/internal/rendering"
	"github.com/jonathan/siteforge/internal/telemetry"
	"github.com/jonathan/siteforge/internal/types"
)

var buildCommand = &cobra.Command{
	Use:   "build",
	Short: "Build one page and heal its layout until it passes audit",
	Long: `Renders a page from a content document and a theme, audits the result in a
headless browser, and escalates through deterministic fixes until the layout
is approved or attempts run out.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runBuildCmd,
}

var (
	buildConfigPath  string
	buildTheme       string
	buildInput       string
	buildGenerate    string
	buildOutput      string
	buildAudit       bool
	buildVision      bool
	buildPredict     bool
	buildMaxAttempts int
	buildAPIKey      string
	buildVerbose     bool
)

func init() {
	buildCommand.Flags().StringVar(&buildConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	buildCommand.Flags().StringVarP(&buildTheme, "theme", "t", "enterprise", "Theme to build with")
	buildCommand.Flags().StringVarP(&buildInput, "input", "i", "", "Path to a content document JSON file (mutually exclusive with --generate)")
	buildCommand.Flags().StringVarP(&buildGenerate, "generate", "g", "", "Free-form brief to generate content from (mutually exclusive with --input)")
	buildCommand.Flags().StringVarP(&buildOutput, "output", "o", "", "Output filename (defaults to a generated name)")
	buildCommand.Flags().BoolVar(&buildAudit, "audit", true, "Audit the rendered layout and heal on rejection")
	buildCommand.Flags().BoolVar(&buildVision, "vision", false, "Enable the vision-model review phase (requires API key)")
	buildCommand.Flags().BoolVar(&buildPredict, "predict", false, "Consult the trained strategy model before the first render")
	buildCommand.Flags().IntVar(&buildMaxAttempts, "max-attempts", 0, "Maximum build attempts")
	buildCommand.Flags().StringVar(&buildAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	buildCommand.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(buildCommand)
}

func runBuildCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadBuildConfig(cmd)
	if err != nil {
		return err
	}

	doc, err := resolveContent(ctx, cfg)
	if err != nil {
		return err
	}

	pipe, err := newPipeline(cfg, buildVision, buildPredict)
	if err != nil {
		return err
	}
	defer pipe.close()

	outputFilename := buildOutput
	if outputFilename == "" {
		outputFilename = fmt.Sprintf("site_%s.html", uuid.NewString()[:8])
	}

	result := pipe.orchestrator.Run(ctx, orchestrator.Request{
		Content:        doc,
		Theme:          buildTheme,
		OutputFilename: outputFilename,
		MaxAttempts:    cfg.MaxAttempts,
		AuditEnabled:   buildAudit,
	})

	return reportResult(result)
}

// loadBuildConfig merges config file, flags, and defaults for the build
// command, in that priority order (flags win).
func loadBuildConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if buildConfigPath != "" {
		loaded, err := config.LoadConfig(buildConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if buildVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", buildConfigPath)
		}
	}

	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = buildMaxAttempts
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = buildAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = buildVerbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolveContent loads the content document from --input, generates it from
// --generate, or falls back to the static document when neither is given.
func resolveContent(ctx context.Context, cfg config.Config) (*types.ContentDocument, error) {
	if buildInput != "" && buildGenerate != "" {
		return nil, fmt.Errorf("--input and --generate are mutually exclusive; provide only one")
	}

	if buildInput != "" {
		return content.LoadDocument(cfg.SchemaPath, buildInput)
	}

	generator, err := newContentGenerator(cfg)
	if err != nil {
		return nil, err
	}
	defer generator.close()

	if buildGenerate == "" {
		return generator.gen.Fallback()
	}

	doc, usedFallback, err := generator.gen.GenerateWithFallback(ctx, buildGenerate, buildTheme)
	if err != nil {
		return nil, err
	}
	if usedFallback {
		_, _ = fmt.Fprintln(os.Stderr, "Warning: content generation failed; using fallback document")
	}
	return doc, nil
}

type contentGenerator struct {
	gen    *content.Generator
	client llm.Client
}

func (c *contentGenerator) close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}

func newContentGenerator(cfg config.Config) (*contentGenerator, error) {
	opts := content.Options{
		SchemaPath:   cfg.SchemaPath,
		FallbackPath: cfg.FallbackPath,
	}

	if buildGenerate == "" {
		// Fallback-only use; no model call will be made.
		return &contentGenerator{gen: content.NewGenerator(nil, opts)}, nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("content generation requires an API key (--api-key or GEMINI_API_KEY)")
	}

	client, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &contentGenerator{gen: content.NewGenerator(client, opts), client: client}, nil
}

// pipeline bundles the build collaborators so batch and build share setup.
type pipeline struct {
	orchestrator *orchestrator.Orchestrator
	renderer     *rendering.Renderer
	browser      *audit.Browser
	llmClient    llm.Client
}

func (p *pipeline) close() {
	if p.browser != nil {
		_ = p.browser.Close()
	}
	if p.llmClient != nil {
		_ = p.llmClient.Close()
	}
}

func newPipeline(cfg config.Config, vision, predictEnabled bool) (*pipeline, error) {
	renderer, err := rendering.NewRenderer(cfg.TemplateDir, cfg.ThemesPath, cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	browser := audit.NewBrowser(cfg.ViewportWidth, cfg.ViewportHeight)
	auditOpts := []audit.Option{
		audit.WithTimeouts(
			time.Duration(cfg.StructuralTimeout)*time.Second,
			time.Duration(cfg.SemanticTimeout)*time.Second,
		),
	}

	var llmClient llm.Client
	if vision {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("--vision requires an API key (--api-key or GEMINI_API_KEY)")
		}
		client, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			_ = browser.Close()
			return nil, err
		}
		llmClient = client
		auditOpts = append(auditOpts, audit.WithSemanticChecker(audit.NewVisionChecker(client)))
	}

	opts := orchestrator.Options{
		Confidence: cfg.Confidence,
		Logger:     telemetry.NewMiner(cfg.TelemetryPath()),
		ErrorLog: func(format string, args ...any) {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		},
	}
	if predictEnabled {
		opts.Recommender = predict.NewPredictor(cfg.ModelDir)
	}
	if cfg.Verbose {
		opts.Printer = observability.NewPrinter(os.Stdout)
	}

	return &pipeline{
		orchestrator: orchestrator.New(renderer, audit.New(browser, auditOpts...), escalate.New(cfg.TruncateLength), opts),
		renderer:     renderer,
		browser:      browser,
		llmClient:    llmClient,
	}, nil
}

// reportResult prints the outcome and maps non-success states to a non-zero
// exit code.
func reportResult(result *types.BuildResult) error {
	switch result.Status {
	case types.StatusSuccess:
		_, _ = fmt.Fprintf(os.Stdout, "✅ %s built in %d attempt(s): %s\n", result.Theme, result.Attempts, result.OutputPath)
		return nil
	case types.StatusRejected:
		reason := ""
		if result.Verdict != nil {
			reason = result.Verdict.Reason
		}
		return fmt.Errorf("build rejected after %d attempt(s): %s (artifact preserved at %s)", result.Attempts, reason, result.OutputPath)
	case types.StatusCancelled:
		return fmt.Errorf("build cancelled after %d attempt(s)", result.Attempts)
	default:
		msg := "unknown error"
		if len(result.Errors) > 0 {
			msg = result.Errors[0]
		}
		return fmt.Errorf("build failed: %s", msg)
	}
}
