// Package schemas validates backend JSON payloads against embedded JSON Schemas.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Names of the embedded schemas, used as the first argument to Validate.
const (
	CampaignRecord = "campaign_record"
	JobFeedPage    = "job_feed_page"
)

//go:embed *.schema.json
var schemaFiles embed.FS

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
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
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

var (
	compileMu sync.Mutex
	compiled  = map[string]*gojsonschema.Schema{}
)

func schemaFor(name string) (*gojsonschema.Schema, error) {
	compileMu.Lock()
	defer compileMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	raw, err := schemaFiles.ReadFile(name + ".schema.json")
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Message: "unknown schema", Cause: err}
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Message: "schema failed to compile", Cause: err}
	}

	compiled[name] = s
	return s, nil
}

// Validate checks a JSON payload against the named embedded schema.
// A failure is reported as a *ValidationError listing every offending field.
func Validate(name string, data []byte) error {
	schema, err := schemaFor(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &SchemaLoadError{Name: name, Message: "document failed to load", Cause: err}
	}

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
