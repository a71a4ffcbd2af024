// Package schemas provides JSON Schema validation for content documents.
package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/siteforge/internal/types"
)

// ContentDocumentSchema is the repo-relative path of the content schema.
const ContentDocumentSchema = "schemas/content_document.json"

// ResolveSchemaPath attempts to find a schema file by trying multiple common
// path resolutions relative to the current working directory and likely repo
// root locations. Returns the first path that exists, or empty string if
// none found. Useful when commands and tests run from different directories.
func ResolveSchemaPath(relativePath string) string {
	candidates := []string{
		relativePath,
		filepath.Join("..", relativePath),
		filepath.Join("..", "..", relativePath),
	}

	for _, candidate := range candidates {
		if absPath, err := filepath.Abs(candidate); err == nil {
			if _, err := os.Stat(absPath); err == nil {
				return absPath
			}
		}
	}

	return ""
}

// ValidationError represents a schema validation failure with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSONString validates JSON content against schema content.
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	return collectErrors(result)
}

// ValidateDocumentFile validates a JSON file against the schema at schemaPath.
func ValidateDocumentFile(schemaPath, jsonPath string) error {
	schemaAbs, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}
	jsonAbs, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}
	if _, err := os.Stat(schemaAbs); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbs)
	}
	if _, err := os.Stat(jsonAbs); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbs)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewReferenceLoader("file://"+schemaAbs),
		gojsonschema.NewReferenceLoader("file://"+jsonAbs),
	)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaAbs,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	return collectErrors(result)
}

// ValidateDocument validates an in-memory content document against the
// schema at schemaPath. Generated content passes through here before any
// render; a document the model hallucinated into the wrong shape must not
// reach the template.
func ValidateDocument(schemaPath string, doc *types.ContentDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	schemaAbs, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}
	if _, err := os.Stat(schemaAbs); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbs)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewReferenceLoader("file://"+schemaAbs),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaAbs,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	return collectErrors(result)
}

func collectErrors(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
