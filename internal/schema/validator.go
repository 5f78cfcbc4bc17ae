package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.yaml
var catalogSchemaYAML []byte

// Validator handles JSON schema validation
type Validator struct {
	catalogSchema *jsonschema.Schema
}

// NewValidator compiles the embedded catalog schema
func NewValidator() (*Validator, error) {
	catalogSchema, err := compileSchema(catalogSchemaYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog schema: %w", err)
	}
	return &Validator{catalogSchema: catalogSchema}, nil
}

// ValidateCatalog validates a decoded catalog document. The document is
// normalized through JSON first so YAML scalar types match what the schema
// compiler expects.
func (v *Validator) ValidateCatalog(data interface{}) error {
	if v.catalogSchema == nil {
		return fmt.Errorf("catalog schema not loaded")
	}
	doc, err := normalize(data)
	if err != nil {
		return err
	}
	return v.catalogSchema.Validate(doc)
}

// ValidateCatalogYAML parses and validates raw catalog YAML
func (v *Validator) ValidateCatalogYAML(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return v.ValidateCatalog(doc)
}

// compileSchema compiles a schema given as YAML or JSON
func compileSchema(data []byte) (*jsonschema.Schema, error) {
	// Parse YAML to interface{} (supports both YAML and JSON)
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	// Convert to JSON for schema compiler
	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schema, err := jsonschema.CompileString("catalog.schema.json", string(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}

func normalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	return doc, nil
}
