package hooks

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.json
var catalogSchemaJSON string

// File is the on-disk catalog form, one file per game version.
type File struct {
	Version    string            `json:"version" yaml:"version"`
	Hooks      []RawEntry        `json:"hooks" yaml:"hooks"`
	Deprecated map[string]string `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func catalogSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(catalogSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parsing catalog schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("catalog.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("adding catalog schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("catalog.schema.json")
	})
	return schema, schemaErr
}

// ValidateJSON checks raw catalog JSON against the embedded schema.
func ValidateJSON(data []byte) error {
	sch, err := catalogSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}
	return sch.Validate(inst)
}

// LoadFile reads one catalog file. JSON files are validated against the
// embedded schema first; YAML files are decoded directly. The version falls
// back to the file name stem when the file omits it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := ValidateJSON(data); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", path)
	}

	version := f.Version
	if version == "" {
		base := filepath.Base(path)
		version = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return NewCatalog(version, f.Hooks, f.Deprecated), nil
}

// RegisterDir loads every catalog file in a directory into the registry,
// keyed by each file's version.
func RegisterDir(reg *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading catalog dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		c, err := LoadFile(path)
		if err != nil {
			return err
		}
		reg.Register(c.Version(), func() (*Catalog, error) { return c, nil })
	}
	return nil
}
