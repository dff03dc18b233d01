// Package usage decides whether a single plugin method is reachable from
// anywhere in the program model. Evidence is checked strongest first, in
// separate passes: overrides, direct invocations, registration-style calls,
// then plain name references.
package usage

import (
	"context"
	"strings"

	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// Scanner reports how plugin methods are used across the program model. It
// only reads the model and is safe for concurrent use.
type Scanner struct{}

// New creates a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// IsUsed walks the model until a use of member is proven. Cancellation is
// honored between file units: a cancelled scan reports Unknown with the
// context error, never a false "unused".
func (s *Scanner) IsUsed(ctx context.Context, member *plugin.Member, model *plugin.Model) (Usage, error) {
	if member == nil || model == nil {
		return Unknown, nil
	}

	if member.IsOverride || member.IsExtension {
		return UsedOverride, nil
	}

	for _, unit := range model.Files {
		if err := ctx.Err(); err != nil {
			return Unknown, err
		}
		for _, call := range unit.Calls {
			if call.Callee == member.Name {
				return UsedDirectCall, nil
			}
		}
	}

	for _, unit := range model.Files {
		if err := ctx.Err(); err != nil {
			return Unknown, err
		}
		for _, call := range unit.Calls {
			if u, ok := registration(call, member, model); ok {
				return u, nil
			}
		}
	}

	for _, unit := range model.Files {
		if err := ctx.Err(); err != nil {
			return Unknown, err
		}
		if unit.Refs[member.Name] {
			return UsedReference, nil
		}
	}

	return Unused, nil
}

// registration matches the two and three argument registration forms
// (AddChatCommand, AddConsoleCommand, timer callbacks and similar).
func registration(call plugin.CallSite, member *plugin.Member, model *plugin.Model) (Usage, bool) {
	for _, t := range RegistrationTargets(call, model) {
		if t.Name == member.Name {
			return t.Kind, true
		}
	}
	return Unknown, false
}

// Target is a method name resolved from a registration argument, together
// with the usage kind the resolution implies.
type Target struct {
	Name string
	Kind Usage
}

// RegistrationTargets resolves the method names a registration-style call
// binds. Only two and three argument forms qualify, and only the last
// argument can name the method. A constant argument resolves to the constant
// value, never to the constant's own identifier.
func RegistrationTargets(call plugin.CallSite, model *plugin.Model) []Target {
	if len(call.Args) != 2 && len(call.Args) != 3 {
		return nil
	}
	last := call.Args[len(call.Args)-1]

	switch last.Kind {
	case plugin.ArgString, plugin.ArgNameof:
		// nameof folds to a constant string at compile time.
		if last.Text != "" {
			return []Target{{Name: last.Text, Kind: RegisteredByConstantName}}
		}
	case plugin.ArgIdent:
		if v, ok := model.ConstantValue(last.Text); ok {
			return []Target{{Name: v, Kind: RegisteredByConstantName}}
		}
		if last.Text != "" {
			return []Target{{Name: last.Text, Kind: RegisteredByDirectSymbol}}
		}
	case plugin.ArgMember:
		if v, ok := model.ConstantValue(last.Text); ok {
			return []Target{{Name: v, Kind: RegisteredByConstantName}}
		}
		if name := lastSegment(last.Text); name != "" {
			return []Target{{Name: name, Kind: RegisteredByDirectSymbol}}
		}
	case plugin.ArgLambda:
		if last.LambdaParams != 1 {
			break
		}
		targets := make([]Target, 0, len(last.LambdaCallees))
		for _, callee := range last.LambdaCallees {
			targets = append(targets, Target{Name: callee, Kind: RegisteredByDelegate})
		}
		return targets
	}
	return nil
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
