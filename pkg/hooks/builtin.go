package hooks

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
)

//go:embed catalogs/*.json
var builtinCatalogs embed.FS

// RegisterBuiltin registers every catalog shipped with the binary.
func RegisterBuiltin(reg *Registry) error {
	entries, err := fs.ReadDir(builtinCatalogs, "catalogs")
	if err != nil {
		return fmt.Errorf("reading builtin catalogs: %w", err)
	}

	for _, entry := range entries {
		data, err := fs.ReadFile(builtinCatalogs, path.Join("catalogs", entry.Name()))
		if err != nil {
			return fmt.Errorf("reading builtin catalog %s: %w", entry.Name(), err)
		}
		if err := ValidateJSON(data); err != nil {
			return fmt.Errorf("builtin catalog %s: %w", entry.Name(), err)
		}
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("builtin catalog %s: %w", entry.Name(), err)
		}
		reg.Register(f.Version, func() (*Catalog, error) {
			return NewCatalog(f.Version, f.Hooks, f.Deprecated), nil
		})
	}
	return nil
}

// DefaultRegistry returns a registry with the builtin catalogs registered.
func DefaultRegistry() (*Registry, error) {
	reg := NewRegistry()
	if err := RegisterBuiltin(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
