package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// Classification
func (c Classification) String() string { return string(c) }

// Severity
func (s Severity) String() string { return string(s) }
