// Package models defines the report vocabulary shared by the analyzers,
// the CLI, and the MCP server.
package models

// Severity grades a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Range is an inclusive line span within a file.
type Range struct {
	StartLine uint32 `json:"start_line" toon:"start_line"`
	EndLine   uint32 `json:"end_line" toon:"end_line"`
}

// Diagnostic is a single finding attached to a source location. Suggestions
// hold rendered replacement signatures when a ranker produced any.
type Diagnostic struct {
	Rule        string   `json:"rule" toon:"rule"`
	Severity    Severity `json:"severity" toon:"severity"`
	Message     string   `json:"message" toon:"message"`
	File        string   `json:"file" toon:"file"`
	Range       Range    `json:"range" toon:"range"`
	Suggestions []string `json:"suggestions,omitempty" toon:"suggestions,omitempty"`
}
