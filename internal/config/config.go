// Package config provides configuration loading and validation for the CLI.
// Configuration is an explicit value passed down the pipeline; nothing in
// this module reads it from a global.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config is the CLI configuration, loadable from a JSON file. All fields
// are optional; missing values use defaults or come from CLI flags.
type Config struct {
	// Paths
	TemplateDir  string `json:"template_dir,omitempty" validate:"omitempty,dir"`
	ThemesPath   string `json:"themes_path,omitempty"`
	OutputDir    string `json:"output_dir,omitempty"`
	DataDir      string `json:"data_dir,omitempty"`
	ModelDir     string `json:"model_dir,omitempty"`
	SchemaPath   string `json:"schema_path,omitempty"`
	FallbackPath string `json:"fallback_path,omitempty"`

	// Healing loop
	MaxAttempts    int     `json:"max_attempts,omitempty" validate:"gte=0,lte=20"`
	TruncateLength int     `json:"truncate_length,omitempty" validate:"gte=0"`
	Confidence     float64 `json:"confidence_threshold,omitempty" validate:"gte=0,lte=1"`

	// Audit
	ViewportWidth     int `json:"viewport_width,omitempty" validate:"gte=0,lte=7680"`
	ViewportHeight    int `json:"viewport_height,omitempty" validate:"gte=0,lte=4320"`
	StructuralTimeout int `json:"structural_timeout_sec,omitempty" validate:"gte=0,lte=300"`
	SemanticTimeout   int `json:"semantic_timeout_sec,omitempty" validate:"gte=0,lte=600"`

	// Behavior
	APIKey  string `json:"api_key,omitempty"`
	Verbose bool   `json:"verbose,omitempty"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		TemplateDir:       "library",
		ThemesPath:        "config/themes.json",
		OutputDir:         "output",
		DataDir:           "data",
		ModelDir:          "data/models",
		SchemaPath:        "schemas/content_document.json",
		FallbackPath:      "data/fallback_content.json",
		MaxAttempts:       5,
		TruncateLength:    50,
		Confidence:        0.6,
		ViewportWidth:     1280,
		ViewportHeight:    800,
		StructuralTimeout: 10,
		SemanticTimeout:   45,
	}
}

// TelemetryPath returns the telemetry log location under the data dir.
func (c *Config) TelemetryPath() string {
	return filepath.Join(c.DataDir, "build_events.csv")
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks ranges and referenced paths. Required fields are enforced
// by flag handling after merging, not here.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config error: field %s failed %s check", first.Field(), first.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.ThemesPath != "" {
		if _, err := os.Stat(c.ThemesPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: themes file not found: %s", c.ThemesPath)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. CLI flags always win for booleans.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.TemplateDir == "" {
		result.TemplateDir = defaults.TemplateDir
	}
	if result.ThemesPath == "" {
		result.ThemesPath = defaults.ThemesPath
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.ModelDir == "" {
		result.ModelDir = defaults.ModelDir
	}
	if result.SchemaPath == "" {
		result.SchemaPath = defaults.SchemaPath
	}
	if result.FallbackPath == "" {
		result.FallbackPath = defaults.FallbackPath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.TruncateLength == 0 {
		result.TruncateLength = defaults.TruncateLength
	}
	if result.Confidence == 0 {
		result.Confidence = defaults.Confidence
	}
	if result.ViewportWidth == 0 {
		result.ViewportWidth = defaults.ViewportWidth
	}
	if result.ViewportHeight == 0 {
		result.ViewportHeight = defaults.ViewportHeight
	}
	if result.StructuralTimeout == 0 {
		result.StructuralTimeout = defaults.StructuralTimeout
	}
	if result.SemanticTimeout == 0 {
		result.SemanticTimeout = defaults.SemanticTimeout
	}

	return result
}
