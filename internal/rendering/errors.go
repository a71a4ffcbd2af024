// Package rendering assembles static HTML artifacts from structured content,
// a visual theme, and style-class overrides.
package rendering

import "fmt"

// TemplateError represents a template parse or execution failure. It is a
// distinct class from I/O failure so callers can tell a broken template
// apart from a broken disk.
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// ThemeError represents a missing or malformed theme configuration.
type ThemeError struct {
	Message string
	Cause   error
}

func (e *ThemeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("theme error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("theme error: %s", e.Message)
}

func (e *ThemeError) Unwrap() error {
	return e.Cause
}

// WriteError represents a failure writing the rendered artifact to disk.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write error: %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
