package schemas

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/siteforge/internal/types"
)

func validDocument() *types.ContentDocument {
	return &types.ContentDocument{
		BrandName: "Acme",
		MenuItems: []types.Link{{Label: "Home", URL: "/"}},
		CTA:       types.Link{Label: "Get started", URL: "/signup"},
		Hero: types.Hero{
			Title:        "Ship faster",
			Subtitle:     "Build and deploy in minutes",
			CTAPrimary:   types.Link{Label: "Start", URL: "/start"},
			CTASecondary: types.Link{Label: "Docs", URL: "/docs"},
		},
		Cards: []types.Card{
			{Name: "CLI", Description: "A fast CLI", URL: "https://example.com", Tags: []string{"go"}, Stars: 42},
		},
	}
}

func schemaPath(t *testing.T) string {
	t.Helper()
	path := ResolveSchemaPath(ContentDocumentSchema)
	require.NotEmpty(t, path, "content document schema not found")
	return path
}

func TestValidateDocument_Valid(t *testing.T) {
	assert.NoError(t, ValidateDocument(schemaPath(t), validDocument()))
}

func TestValidateDocument_MissingBrandName(t *testing.T) {
	doc := validDocument()
	doc.BrandName = ""

	err := ValidateDocument(schemaPath(t), doc)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.NotEmpty(t, ve.Errors)
	assert.Contains(t, ve.Error(), "brand_name")
}

func TestValidateDocument_EmptyMenu(t *testing.T) {
	doc := validDocument()
	doc.MenuItems = nil

	err := ValidateDocument(schemaPath(t), doc)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
}

func writeDocumentFile(t *testing.T, doc *types.ContentDocument) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "content.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestValidateDocumentFile_Valid(t *testing.T) {
	path := writeDocumentFile(t, validDocument())
	assert.NoError(t, ValidateDocumentFile(schemaPath(t), path))
}

func TestValidateDocumentFile_FieldErrors(t *testing.T) {
	doc := validDocument()
	doc.Cards = nil

	err := ValidateDocumentFile(schemaPath(t), writeDocumentFile(t, doc))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Error(), "cards")
}

func TestValidateDocumentFile_MissingFile(t *testing.T) {
	err := ValidateDocumentFile(schemaPath(t), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSONString_Valid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	assert.NoError(t, ValidateJSONString(schema, `{"name": "x"}`))
}

func TestValidateJSONString_FieldErrors(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	err := ValidateJSONString(schema, `{"name": 7}`)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Errors[0].Field)
}

func TestValidateJSONString_BrokenSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": nonsense`, `{}`)

	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
}

func TestResolveSchemaPath_Missing(t *testing.T) {
	assert.Empty(t, ResolveSchemaPath("schemas/no_such_schema.json"))
}
