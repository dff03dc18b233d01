// Package config loads analyzer settings from rust-analyzer config files
// discovered upward from the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// Config holds all options for a hook analysis run.
type Config struct {
	// Catalog selects which hook catalog to match against.
	Catalog CatalogConfig `koanf:"catalog" toml:"catalog"`

	// Exclude lists gitignore-style patterns applied while scanning.
	Exclude []string `koanf:"exclude" toml:"exclude"`

	// Gitignore honors .gitignore files found in the scanned tree.
	Gitignore bool `koanf:"gitignore" toml:"gitignore"`

	// MaxFileSize skips files larger than this many bytes (0 = no limit).
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size"`

	// Hierarchy declares game types the scanned sources never define.
	Hierarchy TypeHierarchy `koanf:"hierarchy" toml:"hierarchy,omitempty"`

	// MaxSuggestions caps similar hook suggestions per diagnostic.
	MaxSuggestions int `koanf:"max_suggestions" toml:"max_suggestions"`

	// Cache controls the per-file classification cache.
	Cache CacheConfig `koanf:"cache" toml:"cache"`
}

// CatalogConfig selects the hook catalog.
type CatalogConfig struct {
	Version string `koanf:"version" toml:"version"`
	Dir     string `koanf:"dir" toml:"dir,omitempty"` // extra catalog files registered on top of the builtins
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool `koanf:"enabled" toml:"enabled"`
	TTL     int  `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// TypeHierarchy declares base classes and interfaces of game types, keyed by
// type name, so the compatibility walk works without game assemblies.
type TypeHierarchy map[string]HierarchyEntry

// HierarchyEntry lists the bases and interfaces of one declared type.
type HierarchyEntry struct {
	Bases      []string `koanf:"bases" toml:"bases,omitempty"`
	Interfaces []string `koanf:"interfaces" toml:"interfaces,omitempty"`
}

// PluginHierarchy converts the declared hierarchy to the program model form.
func (t TypeHierarchy) PluginHierarchy() plugin.Hierarchy {
	if len(t) == 0 {
		return nil
	}
	h := make(plugin.Hierarchy, len(t))
	for name, entry := range t {
		h[name] = plugin.HierarchyType{
			Bases:      entry.Bases,
			Interfaces: entry.Interfaces,
		}
	}
	return h
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Version: "rust",
		},
		Exclude: []string{
			"*.Designer.cs",
			"*.generated.cs",
			"obj",
			"bin",
			".git",
		},
		Gitignore:      true,
		MaxSuggestions: 3,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24,
		},
	}
}

// Load loads configuration from a file, with the parser chosen by extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// configNames are the file names searched at each directory level.
var configNames = []string{
	"rust-analyzer.toml",
	"rust-analyzer.yaml",
	"rust-analyzer.yml",
	"rust-analyzer.json",
	".rust-analyzer.toml",
	".rust-analyzer.yaml",
	".rust-analyzer.yml",
	".rust-analyzer.json",
}

// LoadOrDefault searches for a config file from dir upward to the filesystem
// root and loads the first readable hit. It never fails the run: a missing or
// malformed file falls back to defaults.
func LoadOrDefault(dir string) *Config {
	start, err := filepath.Abs(dir)
	if err != nil {
		return DefaultConfig()
	}

	d := start
	for {
		for _, name := range configNames {
			path := filepath.Join(d, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if cfg, err := Load(path); err == nil {
				return cfg
			}
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return DefaultConfig()
}
