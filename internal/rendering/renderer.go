package rendering

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/siteforge/internal/types"
)

// Renderer assembles HTML pages from a template directory and a theme
// configuration. Rendering is referentially transparent: identical inputs
// produce identical output bytes.
type Renderer struct {
	templateDir string
	outputDir   string
	themes      map[string]ThemeClasses
}

// TemplateData is the context handed to the page template.
type TemplateData struct {
	Content *types.ContentDocument
	Classes ThemeClasses
	Meta    Meta
}

// Meta carries non-content template context.
type Meta struct {
	Theme     string
	Generator string
}

// baseTemplate is the page layout file looked up inside the template directory.
const baseTemplate = "base_layout.html"

// generatorTag identifies the builder in rendered output.
const generatorTag = "siteforge"

// NewRenderer creates a renderer. The template directory must exist; the
// output directory is created on first render.
func NewRenderer(templateDir, themesPath, outputDir string) (*Renderer, error) {
	if _, err := os.Stat(templateDir); err != nil {
		return nil, &TemplateError{Message: fmt.Sprintf("template directory not found: %s", templateDir), Cause: err}
	}

	themes, err := LoadThemes(themesPath)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		templateDir: templateDir,
		outputDir:   outputDir,
		themes:      themes,
	}, nil
}

// Themes returns the available theme names.
func (r *Renderer) Themes() []string {
	return ThemeNames(r.themes)
}

// HasTheme reports whether the named theme is configured.
func (r *Renderer) HasTheme(name string) bool {
	_, ok := r.themes[name]
	return ok
}

// Render builds the page for content + theme + overrides and writes it to
// outputFilename inside the output directory, returning the artifact path.
// Overrides replace the theme's classes for their region wholesale, so a
// later remediation tier fully supersedes an earlier one.
func (r *Renderer) Render(content *types.ContentDocument, theme, outputFilename string, overrides *types.StyleOverrides) (string, error) {
	base, ok := r.themes[theme]
	if !ok {
		available := strings.Join(r.Themes(), ", ")
		return "", &ThemeError{Message: fmt.Sprintf("theme %q not found (available: %s)", theme, available)}
	}

	classes := make(ThemeClasses, len(base))
	for region, cls := range base {
		classes[region] = cls
	}
	if overrides != nil {
		for region, cls := range overrides.Values() {
			classes[region] = cls
		}
	}

	tmplPath := filepath.Join(r.templateDir, baseTemplate)
	raw, err := os.ReadFile(tmplPath)
	if err != nil {
		return "", &TemplateError{Message: fmt.Sprintf("template not found: %s", tmplPath), Cause: err}
	}

	tmpl, err := template.New(baseTemplate).Parse(string(raw))
	if err != nil {
		return "", &TemplateError{Message: "failed to parse template", Cause: err}
	}

	var sb strings.Builder
	data := TemplateData{
		Content: content,
		Classes: classes,
		Meta:    Meta{Theme: theme, Generator: generatorTag},
	}
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", &WriteError{Path: r.outputDir, Cause: err}
	}

	outPath := filepath.Join(r.outputDir, outputFilename)
	if err := writeAtomic(outPath, []byte(sb.String())); err != nil {
		return "", err
	}

	return outPath, nil
}

// writeAtomic writes data via a temp file and rename so a crashed render
// never leaves a half-written artifact for the auditor to load.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".render-*")
	if err != nil {
		return &WriteError{Path: path, Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: path, Cause: err}
	}
	return nil
}

// BrokenName returns the preserved-artifact name for a rejected build.
func BrokenName(outputFilename string) string {
	return "BROKEN_" + outputFilename
}

// PreserveBroken renames a rejected artifact under its BROKEN_ name so the
// evidence of the final attempt is never silently deleted.
func PreserveBroken(artifactPath string) (string, error) {
	dir := filepath.Dir(artifactPath)
	brokenPath := filepath.Join(dir, BrokenName(filepath.Base(artifactPath)))
	if err := os.Rename(artifactPath, brokenPath); err != nil {
		return "", &WriteError{Path: brokenPath, Cause: err}
	}
	return brokenPath, nil
}
