package loader

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/planner"
	"github.com/sourceplane/devsetup/internal/schema"
)

// BuiltinSource names the embedded catalog in messages
const BuiltinSource = "built-in"

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// LoadedCatalog is a schema-valid catalog with its planner
type LoadedCatalog struct {
	Source  string
	Catalog model.Catalog
	Planner *planner.Planner
}

// LoadCatalog loads and validates a catalog YAML file
func LoadCatalog(path string) (*LoadedCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data, path)
}

// DefaultCatalog returns the built-in macOS developer catalog
func DefaultCatalog() (*LoadedCatalog, error) {
	return ParseCatalog(defaultCatalogYAML, BuiltinSource)
}

// DefaultCatalogYAML returns the embedded catalog document, for export
func DefaultCatalogYAML() []byte {
	return append([]byte(nil), defaultCatalogYAML...)
}

// LoadOrDefault loads path, or the built-in catalog when path is empty
func LoadOrDefault(path string) (*LoadedCatalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	return LoadCatalog(path)
}

// ParseCatalog validates data against the catalog schema, decodes it and
// builds the planner, which rejects duplicate ids and dependency cycles.
func ParseCatalog(data []byte, source string) (*LoadedCatalog, error) {
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateCatalogYAML(data); err != nil {
		return nil, fmt.Errorf("catalog %s failed schema validation: %w", source, err)
	}

	var catalog model.Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	p, err := planner.New(catalog.Components)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", source, err)
	}

	return &LoadedCatalog{
		Source:  source,
		Catalog: catalog,
		Planner: p,
	}, nil
}
