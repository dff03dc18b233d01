// Package plugin builds the program model the analyzers consume: the types,
// members, call sites, and references declared across a set of parsed plugin
// sources, merged with the configured game type hierarchy.
package plugin

// MemberKind classifies a class member.
type MemberKind string

const (
	KindMethod   MemberKind = "method"
	KindProperty MemberKind = "property"
	KindField    MemberKind = "field"
	KindOther    MemberKind = "other" // constructors, operators, indexers, events
)

// String implements fmt.Stringer for toon serialization.
func (k MemberKind) String() string { return string(k) }

// Param is a declared parameter on a member.
type Param struct {
	Type       string `json:"type" toon:"type"`
	Name       string `json:"name" toon:"name"`
	HasDefault bool   `json:"has_default,omitempty" toon:"has_default"`
}

// Member is a single declared member of a plugin class.
type Member struct {
	Name        string     `json:"name" toon:"name"`
	Class       string     `json:"class" toon:"class"`
	Kind        MemberKind `json:"kind" toon:"kind"`
	Params      []Param    `json:"params,omitempty" toon:"params"`
	ReturnType  string     `json:"return_type,omitempty" toon:"return_type"`
	IsOverride  bool       `json:"is_override,omitempty" toon:"is_override"`
	IsStatic    bool       `json:"is_static,omitempty" toon:"is_static"`
	IsExtension bool       `json:"is_extension,omitempty" toon:"is_extension"`
	Attributes  []string   `json:"attributes,omitempty" toon:"attributes"`
	Region      string     `json:"region,omitempty" toon:"region"`
	File        string     `json:"file" toon:"file"`
	Line        uint32     `json:"line" toon:"line"`
	EndLine     uint32     `json:"end_line" toon:"end_line"`
}

// TypeInfo describes a type visible to the analysis: either declared in the
// scanned sources or supplied by the configured game hierarchy.
type TypeInfo struct {
	Name       string
	Bases      []string
	Interfaces []string
	Declared   bool // defined in scanned source rather than the hierarchy
	File       string
}

// ArgKind classifies the shape of a call argument.
type ArgKind string

const (
	ArgString ArgKind = "string" // string literal with a resolved value
	ArgIdent  ArgKind = "identifier"
	ArgMember ArgKind = "member_access"
	ArgLambda ArgKind = "lambda"
	ArgNameof ArgKind = "nameof"
	ArgOther  ArgKind = "other"
)

// String implements fmt.Stringer.
func (k ArgKind) String() string { return string(k) }

// Arg is one argument at a call site, reduced to the shape the usage
// analysis needs.
type Arg struct {
	Kind          ArgKind
	Text          string // literal value, identifier, member path, or nameof target
	LambdaParams  int
	LambdaCallees []string
}

// CallSite is a single invocation collected from a syntax tree. Generic
// arguments are stripped from the callee so constructed calls resolve to
// their original definition.
type CallSite struct {
	Caller   string // enclosing member name, empty outside member bodies
	Callee   string
	Receiver string // receiver expression text for member calls
	Args     []Arg
	Line     uint32
}

// FileUnit groups everything collected from one syntax tree. The usage
// analysis iterates units so cancellation can be honored between trees.
type FileUnit struct {
	Path  string
	Calls []CallSite
	Refs  map[string]bool // identifier and member names referenced, declarations excluded
}

// Hierarchy declares game types the scanned sources never define, keyed by
// type name.
type Hierarchy map[string]HierarchyType

// HierarchyType lists the bases and interfaces of one hierarchy entry.
type HierarchyType struct {
	Bases      []string
	Interfaces []string
}

// Model is the program model the analyzers consume. It is immutable after
// Build and safe for concurrent reads.
type Model struct {
	Types     map[string]*TypeInfo
	Members   []*Member
	Files     []*FileUnit
	Constants map[string]string // const string values by bare and Class.Name keys

	byName map[string][]*Member
}

// MembersNamed returns the declared members with the given name.
func (m *Model) MembersNamed(name string) []*Member {
	return m.byName[name]
}

// ResolveType looks up a type by name.
func (m *Model) ResolveType(name string) (*TypeInfo, bool) {
	t, ok := m.Types[name]
	return t, ok
}

// BaseChain returns the inheritance chain of a type, most-derived first:
// base types in declaration order before interfaces, recursively, without
// duplicates. The type itself is not included.
func (m *Model) BaseChain(name string) []string {
	var chain []string
	seen := map[string]bool{name: true}

	var visit func(string)
	visit = func(n string) {
		t, ok := m.Types[n]
		if !ok {
			return
		}
		for _, b := range t.Bases {
			if seen[b] {
				continue
			}
			seen[b] = true
			chain = append(chain, b)
			visit(b)
		}
		for _, iface := range t.Interfaces {
			if seen[iface] {
				continue
			}
			seen[iface] = true
			chain = append(chain, iface)
			visit(iface)
		}
	}
	visit(name)

	return chain
}

// ConstantValue resolves a const string by bare name or Class.Name path.
func (m *Model) ConstantValue(name string) (string, bool) {
	v, ok := m.Constants[name]
	return v, ok
}

// index rebuilds the name lookup. Called once at the end of Build.
func (m *Model) index() {
	m.byName = make(map[string][]*Member, len(m.Members))
	for _, mem := range m.Members {
		m.byName[mem.Name] = append(m.byName[mem.Name], mem)
	}
}
