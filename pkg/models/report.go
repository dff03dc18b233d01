package models

import "time"

// Classification is the terminal state assigned to a plugin method. Exactly
// one applies per method; the states are ordered by the policy, first match
// wins.
type Classification string

const (
	ClassificationExempt                Classification = "exempt"
	ClassificationValidHook             Classification = "valid-hook"
	ClassificationDeprecated            Classification = "deprecated"
	ClassificationUsed                  Classification = "used"
	ClassificationUnusedAPI             Classification = "unused-api"
	ClassificationUnusedCommand         Classification = "unused-command"
	ClassificationUnusedWithSuggestions Classification = "unused-with-suggestions"
	ClassificationUnused                Classification = "unused"
)

// IsUnused reports whether the classification is one of the unused states.
func (c Classification) IsUnused() bool {
	switch c {
	case ClassificationUnusedAPI, ClassificationUnusedCommand,
		ClassificationUnusedWithSuggestions, ClassificationUnused:
		return true
	}
	return false
}

// MethodResult is the classification of a single plugin method.
type MethodResult struct {
	Method         string         `json:"method" toon:"method"`
	Class          string         `json:"class,omitempty" toon:"class,omitempty"`
	File           string         `json:"file" toon:"file"`
	Line           uint32         `json:"line" toon:"line"`
	EndLine        uint32         `json:"end_line" toon:"end_line"`
	Classification Classification `json:"classification" toon:"classification"`
	Usage          string         `json:"usage,omitempty" toon:"usage,omitempty"`
	MatchedHook    string         `json:"matched_hook,omitempty" toon:"matched_hook,omitempty"`
	Diagnostics    []Diagnostic   `json:"diagnostics,omitempty" toon:"diagnostics,omitempty"`
}

// Summary provides aggregate statistics for a classification run.
type Summary struct {
	TotalMethods       int                    `json:"total_methods" toon:"total_methods"`
	TotalFilesAnalyzed int                    `json:"total_files_analyzed" toon:"total_files_analyzed"`
	ValidHooks         int                    `json:"valid_hooks" toon:"valid_hooks"`
	DeprecatedHooks    int                    `json:"deprecated_hooks" toon:"deprecated_hooks"`
	UsedMethods        int                    `json:"used_methods" toon:"used_methods"`
	UnusedMethods      int                    `json:"unused_methods" toon:"unused_methods"`
	ExemptMethods      int                    `json:"exempt_methods" toon:"exempt_methods"`
	ByClassification   map[Classification]int `json:"by_classification" toon:"-"`
	ByFile             map[string]int         `json:"by_file,omitempty" toon:"-"`
}

// NewSummary creates an initialized summary.
func NewSummary() Summary {
	return Summary{
		ByClassification: make(map[Classification]int),
		ByFile:           make(map[string]int),
	}
}

// Add updates the summary with one method result. ByFile only counts methods
// that produced at least one diagnostic.
func (s *Summary) Add(r MethodResult) {
	s.TotalMethods++
	s.ByClassification[r.Classification]++
	if len(r.Diagnostics) > 0 {
		s.ByFile[r.File]++
	}

	switch r.Classification {
	case ClassificationExempt:
		s.ExemptMethods++
	case ClassificationValidHook:
		s.ValidHooks++
	case ClassificationDeprecated:
		s.DeprecatedHooks++
	case ClassificationUsed:
		s.UsedMethods++
	default:
		if r.Classification.IsUnused() {
			s.UnusedMethods++
		}
	}
}

// Report is the full result of a hook classification run.
type Report struct {
	Results        []MethodResult `json:"results" toon:"results"`
	Summary        Summary        `json:"summary" toon:"summary"`
	Warnings       []string       `json:"warnings,omitempty" toon:"warnings,omitempty"`
	CatalogVersion string         `json:"catalog_version,omitempty" toon:"catalog_version,omitempty"`
	AnalyzedAt     time.Time      `json:"analyzed_at" toon:"analyzed_at"`
}

// NewReport creates an initialized report.
func NewReport() *Report {
	return &Report{
		Results: make([]MethodResult, 0),
		Summary: NewSummary(),
	}
}

// AddResult appends a method result and updates the summary.
func (r *Report) AddResult(result MethodResult) {
	r.Results = append(r.Results, result)
	r.Summary.Add(result)
}

// Diagnostics returns every diagnostic across all results, in result order.
func (r *Report) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, res := range r.Results {
		out = append(out, res.Diagnostics...)
	}
	return out
}
