// Package content produces content documents from free-form briefs using a
// generative model, with schema validation and a static fallback so a build
// can always start from a known-good document.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/siteforge/internal/llm"
	"github.com/jonathan/siteforge/internal/schemas"
	"github.com/jonathan/siteforge/internal/types"
)

// contentPrompt instructs the model to emit a document matching the content
// schema. The shape is spelled out inline; the model never sees the schema
// file itself.
const contentPrompt = `You are a copywriter for a static landing page generator.

Write landing page content for the following brief:
%s

The page uses the %q visual theme. Keep copy concise and concrete.

Return ONLY a JSON object with exactly this shape, no markdown:
{
  "brand_name": "...",
  "menu_items": [{"label": "...", "url": "..."}],
  "cta": {"label": "...", "url": "..."},
  "hero": {
    "title": "...",
    "subtitle": "...",
    "cta_primary": {"label": "...", "url": "..."},
    "cta_secondary": {"label": "...", "url": "..."}
  },
  "cards": [{"name": "...", "description": "...", "url": "...", "tags": ["..."], "stars": 0}]
}

Include 3 to 5 menu items and 3 to 6 cards. Every url may be a fragment like "#features".`

// GenerationError wraps the last failure after retries are exhausted.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Options configure a Generator.
type Options struct {
	SchemaPath   string
	FallbackPath string
	MaxRetries   int           // default 3
	Backoff      time.Duration // base delay, doubled per retry; default 2s
}

// Generator turns briefs into validated content documents.
type Generator struct {
	client llm.Client
	opts   Options
}

// NewGenerator creates a generator over the given model client.
func NewGenerator(client llm.Client, opts Options) *Generator {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	return &Generator{client: client, opts: opts}
}

// Generate asks the model for a content document, retrying with backoff on
// malformed or invalid responses. The returned document always satisfies
// the content schema.
func (g *Generator) Generate(ctx context.Context, brief, theme string) (*types.ContentDocument, error) {
	prompt := fmt.Sprintf(contentPrompt, brief, theme)

	var lastErr error
	for attempt := 1; attempt <= g.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := sleepBackoff(ctx, g.opts.Backoff, attempt-1); err != nil {
				return nil, err
			}
		}

		raw, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
		if err != nil {
			lastErr = err
			continue
		}

		doc, err := parseAndValidate(g.opts.SchemaPath, []byte(llm.CleanJSONBlock(raw)))
		if err != nil {
			lastErr = err
			continue
		}
		return doc, nil
	}

	return nil, &GenerationError{
		Message: fmt.Sprintf("content generation failed after %d attempts", g.opts.MaxRetries),
		Cause:   lastErr,
	}
}

// GenerateWithFallback tries Generate and falls back to the static document
// on exhaustion. The boolean reports whether the fallback was used.
func (g *Generator) GenerateWithFallback(ctx context.Context, brief, theme string) (*types.ContentDocument, bool, error) {
	doc, err := g.Generate(ctx, brief, theme)
	if err == nil {
		return doc, false, nil
	}
	if ctx.Err() != nil {
		return nil, false, err
	}

	fallback, fbErr := g.Fallback()
	if fbErr != nil {
		return nil, false, fmt.Errorf("generation failed (%v) and fallback unavailable: %w", err, fbErr)
	}
	return fallback, true, nil
}

// Fallback loads and validates the static fallback document.
func (g *Generator) Fallback() (*types.ContentDocument, error) {
	raw, err := os.ReadFile(g.opts.FallbackPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback content: %w", err)
	}
	return parseAndValidate(g.opts.SchemaPath, raw)
}

// LoadDocument reads a content document from disk and validates it against
// the schema at schemaPath.
func LoadDocument(schemaPath, path string) (*types.ContentDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	var doc types.ContentDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed content document: %w", err)
	}
	if err := schemas.ValidateDocumentFile(schemaPath, path); err != nil {
		return nil, err
	}
	return &doc, nil
}

func parseAndValidate(schemaPath string, raw []byte) (*types.ContentDocument, error) {
	var doc types.ContentDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed content document: %w", err)
	}
	if err := schemas.ValidateDocument(schemaPath, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// sleepBackoff waits base*2^(retries-1), aborting early on cancellation.
func sleepBackoff(ctx context.Context, base time.Duration, retries int) error {
	delay := base << (retries - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
