// Package hooks holds the hook catalog: parsed signatures of every callback
// a game server will invoke on plugins, deprecation mappings, and the type
// compatibility rules used to match plugin methods against them.
package hooks

import (
	"fmt"
	"sort"

	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// RawEntry is one unparsed catalog line: the providing plugin (may be
// empty for engine hooks) and the signature text.
type RawEntry struct {
	Plugin    string `json:"plugin,omitempty" yaml:"plugin,omitempty"`
	Signature string `json:"signature" yaml:"signature"`
}

type deprecatedEntry struct {
	descriptor  Descriptor
	replacement string // rendered replacement signature, empty when none
}

// Catalog is the immutable set of known hooks for one game version. Build it
// once with NewCatalog; all lookups are read-only and safe for concurrent
// use.
type Catalog struct {
	version    string
	byName     map[string][]Descriptor
	deprecated map[string]deprecatedEntry
	warnings   []string
	count      int
}

// NewCatalog parses raw entries and the deprecation map into a catalog.
// Malformed entries are skipped with a recorded warning, never an error.
// Entries sharing a name and ordered parameter type list are one hook; the
// first seen wins.
func NewCatalog(version string, entries []RawEntry, deprecated map[string]string) *Catalog {
	c := &Catalog{
		version:    version,
		byName:     make(map[string][]Descriptor),
		deprecated: make(map[string]deprecatedEntry),
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		d, err := ParseSignature(entry.Signature)
		if err != nil {
			c.warnings = append(c.warnings, fmt.Sprintf("skipping hook %q: %v", entry.Signature, err))
			continue
		}
		d.Plugin = entry.Plugin

		key := paramTypesKey(d)
		if seen[key] {
			continue
		}
		seen[key] = true

		c.byName[d.Name] = append(c.byName[d.Name], d)
		c.count++
	}

	// Sorted for deterministic first-wins when two deprecated signatures
	// parse to the same name.
	oldSignatures := make([]string, 0, len(deprecated))
	for old := range deprecated {
		oldSignatures = append(oldSignatures, old)
	}
	sort.Strings(oldSignatures)

	for _, old := range oldSignatures {
		d, err := ParseSignature(old)
		if err != nil {
			c.warnings = append(c.warnings, fmt.Sprintf("skipping deprecated hook %q: %v", old, err))
			continue
		}
		if _, exists := c.deprecated[d.Name]; exists {
			continue
		}

		replacement := ""
		if repl := deprecated[old]; repl != "" {
			if rd, err := ParseSignature(repl); err == nil {
				replacement = rd.Signature
			} else {
				c.warnings = append(c.warnings, fmt.Sprintf("unparseable replacement %q for %q: %v", repl, old, err))
				replacement = repl
			}
		}
		c.deprecated[d.Name] = deprecatedEntry{descriptor: d, replacement: replacement}
	}

	return c
}

// Version returns the game version key this catalog was built for.
func (c *Catalog) Version() string { return c.version }

// Len returns the number of distinct hooks.
func (c *Catalog) Len() int { return c.count }

// DeprecatedCount returns the number of deprecated hook mappings.
func (c *Catalog) DeprecatedCount() int { return len(c.deprecated) }

// Warnings returns the parse warnings recorded while building.
func (c *Catalog) Warnings() []string { return c.warnings }

// ByName returns the hooks sharing a name, in catalog order.
func (c *Catalog) ByName(name string) []Descriptor { return c.byName[name] }

// IsKnownHook reports whether any hook carries the name.
func (c *Catalog) IsKnownHook(name string) bool { return len(c.byName[name]) > 0 }

// IsDeprecated reports whether the name matches a deprecated hook.
func (c *Catalog) IsDeprecated(name string) bool {
	_, ok := c.deprecated[name]
	return ok
}

// DeprecatedFor returns the deprecated descriptor matching a name and the
// rendered replacement signature, empty when the hook has no replacement.
func (c *Catalog) DeprecatedFor(name string) (Descriptor, string, bool) {
	entry, ok := c.deprecated[name]
	if !ok {
		return Descriptor{}, "", false
	}
	return entry.descriptor, entry.replacement, true
}

// Hooks returns every hook descriptor sorted by rendered signature, for
// ranking and display.
func (c *Catalog) Hooks() []Descriptor {
	out := make([]Descriptor, 0, c.count)
	for _, bucket := range c.byName {
		out = append(out, bucket...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// Matches returns the hooks a plugin member implements: same name, same
// arity, and a compatible type at every parameter position. Parameter names
// never participate.
func (c *Catalog) Matches(model *plugin.Model, member *plugin.Member) []Descriptor {
	var out []Descriptor
	for _, d := range c.byName[member.Name] {
		if len(d.Params) != len(member.Params) {
			continue
		}
		ok := true
		for i := range d.Params {
			if !Compatible(model, member.Params[i].Type, d.Params[i].Type) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, d)
		}
	}
	return out
}
