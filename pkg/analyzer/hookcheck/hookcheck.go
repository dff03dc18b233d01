// Package hookcheck classifies every member of a parsed plugin model into
// exactly one terminal state: exempt, a valid or deprecated hook, used
// internally, or one of the unused flavors. States are evaluated in order and
// the first match wins, so each method yields at most one diagnostic.
package hookcheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/similarity"
	"github.com/publicrust/rust-analyzer-sub000/pkg/analyzer/usage"
	"github.com/publicrust/rust-analyzer-sub000/pkg/hooks"
	"github.com/publicrust/rust-analyzer-sub000/pkg/models"
	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// Diagnostic rule identifiers.
const (
	RuleDeprecatedHook = "deprecated-hook"
	RuleUnusedAPI      = "unused-api-method"
	RuleUnusedCommand  = "unregistered-command"
	RuleUnknownHook    = "unknown-hook"
	RuleUnusedMethod   = "unused-method"
)

const defaultMaxSuggestions = 3

// exemptAttributes mark methods that carry their own hook or registration
// semantics and are never reported on.
var exemptAttributes = map[string]bool{
	"HookMethod":     true,
	"ChatCommand":    true,
	"ConsoleCommand": true,
	"Command":        true,
}

// Policy classifies plugin methods against a hook catalog.
type Policy struct {
	catalog        *hooks.Catalog
	scanner        *usage.Scanner
	maxSuggestions int
}

// Compile-time check that Policy implements the analyzer interface.
var _ analyzer.ModelAnalyzer[*models.Report] = (*Policy)(nil)

// Option configures a Policy.
type Option func(*Policy)

// WithMaxSuggestions caps how many similar hook signatures a diagnostic may
// suggest.
func WithMaxSuggestions(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxSuggestions = n
		}
	}
}

// New creates a classification policy over the given catalog.
func New(catalog *hooks.Catalog, opts ...Option) *Policy {
	p := &Policy{
		catalog:        catalog,
		scanner:        usage.New(),
		maxSuggestions: defaultMaxSuggestions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze classifies every member of the model and returns the full report.
func (p *Policy) Analyze(ctx context.Context, model *plugin.Model) (*models.Report, error) {
	report := models.NewReport()
	report.CatalogVersion = p.catalog.Version()
	report.Warnings = append(report.Warnings, p.catalog.Warnings()...)
	report.Summary.TotalFilesAnalyzed = len(model.Files)

	for _, member := range model.Members {
		result, err := p.Classify(ctx, member, model)
		if err != nil {
			return nil, fmt.Errorf("classifying %s.%s: %w", member.Class, member.Name, err)
		}
		report.AddResult(result)
	}

	report.AnalyzedAt = time.Now().UTC()
	return report, nil
}

// Classify runs one member through the policy states in order and returns
// the terminal result. A failed sub-query simply skips its state; the only
// error path is a cancelled usage scan.
func (p *Policy) Classify(ctx context.Context, member *plugin.Member, model *plugin.Model) (models.MethodResult, error) {
	result := models.MethodResult{
		Method:  member.Name,
		Class:   member.Class,
		File:    member.File,
		Line:    member.Line,
		EndLine: member.EndLine,
	}

	if Exempt(member) {
		result.Classification = models.ClassificationExempt
		return result, nil
	}

	if matches := p.catalog.Matches(model, member); len(matches) > 0 {
		result.Classification = models.ClassificationValidHook
		result.MatchedHook = matches[0].Signature
		return result, nil
	}

	if _, replacement, ok := p.catalog.DeprecatedFor(member.Name); ok {
		result.Classification = models.ClassificationDeprecated
		msg := fmt.Sprintf("%s is deprecated (no replacement)", member.Name)
		if replacement != "" {
			msg = fmt.Sprintf("%s is deprecated, use %s", member.Name, replacement)
		}
		result.Diagnostics = append(result.Diagnostics, diagnostic(member, RuleDeprecatedHook, msg, nil))
		return result, nil
	}

	use, err := p.scanner.IsUsed(ctx, member, model)
	if err != nil {
		return result, err
	}
	result.Usage = use.String()
	if use.IsUsed() {
		result.Classification = models.ClassificationUsed
		return result, nil
	}

	switch {
	case apiRegion(member.Region):
		result.Classification = models.ClassificationUnusedAPI
		msg := fmt.Sprintf("%s sits in an API region but is never used internally; mark it with [HookMethod] if other plugins call it", member.Name)
		result.Diagnostics = append(result.Diagnostics, diagnostic(member, RuleUnusedAPI, msg, nil))

	case commandName(member.Name):
		result.Classification = models.ClassificationUnusedCommand
		msg := fmt.Sprintf("%s looks like a command but is never registered", member.Name)
		result.Diagnostics = append(result.Diagnostics, diagnostic(member, RuleUnusedCommand, msg, commandShapes(member.Name)))

	default:
		if suggestions := similarity.Rank(member.Name, p.catalog.Hooks(), p.maxSuggestions); len(suggestions) > 0 {
			result.Classification = models.ClassificationUnusedWithSuggestions
			texts := make([]string, len(suggestions))
			for i, s := range suggestions {
				texts[i] = s.Text
			}
			msg := fmt.Sprintf("%s matches no known hook and is never used", member.Name)
			result.Diagnostics = append(result.Diagnostics, diagnostic(member, RuleUnknownHook, msg, texts))
			break
		}
		result.Classification = models.ClassificationUnused
		msg := fmt.Sprintf("%s is never used", member.Name)
		result.Diagnostics = append(result.Diagnostics, diagnostic(member, RuleUnusedMethod, msg, nil))
	}

	return result, nil
}

func diagnostic(member *plugin.Member, rule, message string, suggestions []string) models.Diagnostic {
	return models.Diagnostic{
		Rule:     rule,
		Severity: models.SeverityWarning,
		Message:  message,
		File:     member.File,
		Range: models.Range{
			StartLine: member.Line,
			EndLine:   member.EndLine,
		},
		Suggestions: suggestions,
	}
}

// Exempt filters members the policy never reports on: anything that is not a
// plain method, compiler-reserved names, and methods whose attributes already
// register them. The reachability analyzer treats exempt methods as roots.
func Exempt(member *plugin.Member) bool {
	if member.Kind != plugin.KindMethod {
		return true
	}
	if specialName(member.Name) {
		return true
	}
	for _, attr := range member.Attributes {
		if exemptAttributes[attr] {
			return true
		}
	}
	return false
}

// specialName matches compiler-reserved member names that plugin source never
// calls directly.
func specialName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return true
	}
	for _, prefix := range []string{"get_", "set_", "add_", "remove_", "op_"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// apiRegion reports whether a region name marks exposed API surface, as in
// "#region API" or "#region Public API".
func apiRegion(region string) bool {
	return strings.Contains(strings.ToLower(region), "api")
}

// commandName is the naming heuristic for command handlers: TeleportCommand,
// ListCmd, GiveCMD, cmdKit and similar.
func commandName(name string) bool {
	return strings.HasSuffix(name, "Command") ||
		strings.HasSuffix(name, "Cmd") ||
		strings.HasSuffix(name, "CMD") ||
		strings.HasPrefix(name, "cmd")
}

// commandShapes renders the canonical registration forms for a command
// method, ready to paste into the plugin.
func commandShapes(name string) []string {
	return []string{
		fmt.Sprintf("[ChatCommand(%q)]", name),
		fmt.Sprintf("[ConsoleCommand(%q)]", name),
		fmt.Sprintf("AddChatCommand(%q, this, nameof(%s))", name, name),
		fmt.Sprintf("AddConsoleCommand(%q, this, nameof(%s))", name, name),
	}
}
