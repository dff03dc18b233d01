package hooks

import (
	"fmt"
	"strings"
)

// Param is one declared parameter of a hook signature.
type Param struct {
	Type       string `json:"type" toon:"type"`
	Name       string `json:"name,omitempty" toon:"name"`
	HasDefault bool   `json:"has_default,omitempty" toon:"has_default"`
}

// Descriptor is a parsed hook signature from the catalog.
type Descriptor struct {
	Name      string  `json:"name" toon:"name"`
	Params    []Param `json:"params,omitempty" toon:"params"`
	Return    string  `json:"return,omitempty" toon:"return"`
	Plugin    string  `json:"plugin,omitempty" toon:"plugin"`
	Signature string  `json:"signature" toon:"signature"`
}

// ParseSignature parses one hook signature line:
//
//	[ReturnType] Name(Type1 name1, Type2 name2 = default, ...)
//
// The leading return type token is optional. Commas inside generic type
// arguments do not split parameters.
func ParseSignature(text string) (Descriptor, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Descriptor{}, fmt.Errorf("empty signature")
	}

	open := strings.Index(text, "(")
	if open < 0 || !strings.HasSuffix(text, ")") {
		return Descriptor{}, fmt.Errorf("missing parameter list in %q", text)
	}

	head := strings.TrimSpace(text[:open])
	inner := text[open+1 : len(text)-1]

	var d Descriptor
	switch tokens := splitTopLevel(head, ' '); len(tokens) {
	case 1:
		d.Name = tokens[0]
	case 2:
		d.Return = tokens[0]
		d.Name = tokens[1]
	default:
		return Descriptor{}, fmt.Errorf("unparseable signature head in %q", text)
	}
	if d.Name == "" || strings.ContainsAny(d.Name, "<>[],") {
		return Descriptor{}, fmt.Errorf("bad hook name in %q", text)
	}

	for _, part := range splitTopLevel(inner, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		param, err := parseParam(part)
		if err != nil {
			return Descriptor{}, fmt.Errorf("bad parameter %q in %q: %w", part, text, err)
		}
		d.Params = append(d.Params, param)
	}

	d.Signature = renderSignature(d)
	return d, nil
}

// parseParam parses "Type name", "Type name = default", or a bare type.
func parseParam(part string) (Param, error) {
	var p Param
	if eq := indexTopLevel(part, '='); eq >= 0 {
		p.HasDefault = true
		part = strings.TrimSpace(part[:eq])
	}

	tokens := splitTopLevel(part, ' ')
	// Leading parameter modifiers carry no type information.
	for len(tokens) > 0 && isParamModifier(tokens[0]) {
		tokens = tokens[1:]
	}
	switch len(tokens) {
	case 0:
		return p, fmt.Errorf("no type")
	case 1:
		p.Type = tokens[0]
	default:
		p.Type = strings.Join(tokens[:len(tokens)-1], " ")
		p.Name = tokens[len(tokens)-1]
	}
	return p, nil
}

// renderSignature renders the canonical display form: name and parameters
// without the return type or default values.
func renderSignature(d Descriptor) string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type)
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// paramTypesKey renders the ordered parameter type list used for dedup.
func paramTypesKey(d Descriptor) string {
	types := make([]string, len(d.Params))
	for i, p := range d.Params {
		types[i] = p.Type
	}
	return d.Name + "(" + strings.Join(types, ",") + ")"
}

// splitTopLevel splits on a separator, ignoring separators nested inside
// angle brackets, parentheses, or square brackets. Space separators also
// collapse runs.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	depth := 0

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		}
		if r == sep && depth == 0 {
			if sep == ' ' {
				flush()
			} else {
				parts = append(parts, current.String())
				current.Reset()
			}
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return parts
}

func isParamModifier(token string) bool {
	switch token {
	case "params", "ref", "out", "in", "this":
		return true
	}
	return false
}

// indexTopLevel returns the index of the first unnested occurrence of c.
func indexTopLevel(s string, c rune) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		}
		if r == c && depth == 0 {
			return i
		}
	}
	return -1
}
