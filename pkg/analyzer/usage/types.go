package usage

// Usage describes the strongest evidence found that a method is reachable.
type Usage string

const (
	// UsedOverride marks override and extension methods, which the runtime
	// or other assemblies invoke.
	UsedOverride Usage = "override"

	// UsedDirectCall marks methods invoked directly somewhere in the model.
	UsedDirectCall Usage = "direct-call"

	// RegisteredByConstantName marks methods whose name appears as the
	// final string argument of a registration call.
	RegisteredByConstantName Usage = "registered-constant-name"

	// RegisteredByDelegate marks methods passed through a single-parameter
	// anonymous function at a registration call.
	RegisteredByDelegate Usage = "registered-delegate"

	// RegisteredByDirectSymbol marks methods passed as a bare method group
	// at a registration call.
	RegisteredByDirectSymbol Usage = "registered-direct-symbol"

	// UsedReference marks methods referenced by name anywhere outside their
	// own declaration.
	UsedReference Usage = "reference"

	// Unused means no evidence of use was found.
	Unused Usage = "unused"

	// Unknown means the scan could not complete, typically cancellation.
	Unknown Usage = "unknown"
)

// String implements fmt.Stringer for toon serialization.
func (u Usage) String() string { return string(u) }

// IsUsed reports whether the usage is any form of reachability. Unknown is
// not used: an interrupted scan must never look like a finding.
func (u Usage) IsUsed() bool {
	switch u {
	case Unused, Unknown, "":
		return false
	}
	return true
}
