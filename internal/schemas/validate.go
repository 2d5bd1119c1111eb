// Package schemas validates documents against JSON Schemas, either the embedded
// profile and resume schemas or arbitrary schema files.
package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	embedded "github.com/jonathan/resume-memory/schemas"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
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

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Problems returns one "field: message" line per error
func (ve *ValidationError) Problems() []string {
	out := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		out[i] = err.Field + ": " + err.Message
	}
	return out
}

var compiled = struct {
	once     sync.Once
	profile  *gojsonschema.Schema
	document *gojsonschema.Schema
	err      error
}{}

// loadEmbedded compiles the embedded schemas once
func loadEmbedded() (*gojsonschema.Schema, *gojsonschema.Schema, error) {
	compiled.once.Do(func() {
		compiled.profile, compiled.err = compileEmbedded(embedded.MemoryProfile)
		if compiled.err != nil {
			return
		}
		compiled.document, compiled.err = compileEmbedded(embedded.ResumeDocument)
	})
	return compiled.profile, compiled.document, compiled.err
}

func compileEmbedded(name string) (*gojsonschema.Schema, error) {
	common, err := embedded.FS.ReadFile(embedded.Common)
	if err != nil {
		return nil, &SchemaLoadError{Path: embedded.Common, Message: "not embedded", Cause: err}
	}
	root, err := embedded.FS.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "not embedded", Cause: err}
	}

	sl := gojsonschema.NewSchemaLoader()
	if err := sl.AddSchemas(gojsonschema.NewBytesLoader(common)); err != nil {
		return nil, &SchemaLoadError{Path: embedded.Common, Message: "invalid schema", Cause: err}
	}
	schema, err := sl.Compile(gojsonschema.NewBytesLoader(root))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	return schema, nil
}

// ValidateProfile validates a memory profile (typed or raw JSON-shaped) against the
// embedded profile schema
func ValidateProfile(v any) error {
	profile, _, err := loadEmbedded()
	if err != nil {
		return err
	}
	return validateValue(profile, v)
}

// ValidateDocument validates a resume document against the embedded resume schema
func ValidateDocument(v any) error {
	_, document, err := loadEmbedded()
	if err != nil {
		return err
	}
	return validateValue(document, v)
}

func validateValue(schema *gojsonschema.Schema, v any) error {
	// Typed values are validated in their JSON form so struct tags apply.
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}
	return resultError(result)
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}

	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}

	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}

	schemaLoader := gojsonschema.NewReferenceLoader("file://" + schemaAbsPath)
	documentLoader := gojsonschema.NewReferenceLoader("file://" + jsonAbsPath)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaAbsPath,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return resultError(result)
}

// resultError converts a failed result into a *ValidationError
func resultError(result *gojsonschema.Result) error {
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
