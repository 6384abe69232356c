package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/kamilpajak/pauli/pkg/models"
)

//go:embed schema/quality-report.schema.json
var schemaBytes []byte

const schemaURL = "https://github.com/kamilpajak/pauli/quality-report.schema.json"

// SchemaValidator validates generated reports against the published schema.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles the embedded report schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse report schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to register report schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile report schema: %w", err)
	}

	return &SchemaValidator{schema: schema}, nil
}

// Validate round-trips the report through JSON and checks it against the
// schema, exactly as a consumer of the written file would see it.
func (v *SchemaValidator) Validate(r *models.QualityReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to reparse report: %w", err)
	}
	return v.schema.Validate(instance)
}
