package plugin

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/publicrust/rust-analyzer-sub000/pkg/parser"
)

// Build constructs the program model from parsed sources and the configured
// game hierarchy. The context is checked between syntax trees; a cancelled
// build returns the context error rather than a partial model.
func Build(ctx context.Context, results []*parser.ParseResult, hierarchy Hierarchy) (*Model, error) {
	model := &Model{
		Types:     make(map[string]*TypeInfo),
		Constants: make(map[string]string),
	}

	for name, h := range hierarchy {
		model.Types[name] = &TypeInfo{
			Name:       name,
			Bases:      append([]string(nil), h.Bases...),
			Interfaces: append([]string(nil), h.Interfaces...),
		}
	}

	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		collectFile(result, model)
	}

	model.index()
	return model, nil
}

// collectFile walks one syntax tree, adding its types, members, calls, and
// references to the model.
func collectFile(result *parser.ParseResult, model *Model) {
	unit := &FileUnit{
		Path: result.Path,
		Refs: make(map[string]bool),
	}
	regions := scanRegions(result.Source)
	declNames := make(map[uint32]bool) // start bytes of declaration name nodes

	root := result.Tree.RootNode()
	source := result.Source

	for _, node := range parser.FindNodes(root, source, isTypeDeclaration) {
		collectType(node, source, result.Path, model, declNames)
	}

	for _, classNode := range parser.FindNodesByType(root, source, "class_declaration") {
		className := parser.GetNodeText(classNode.ChildByFieldName("name"), source)
		if body := classNode.ChildByFieldName("body"); body != nil {
			for i := range int(body.ChildCount()) {
				collectMember(body.Child(i), source, className, result.Path, regions, model, unit, declNames)
			}
		}
	}

	collectRefs(root, source, unit, declNames)

	model.Files = append(model.Files, unit)
}

func isTypeDeclaration(n *sitter.Node) bool {
	switch n.Type() {
	case "class_declaration", "interface_declaration", "struct_declaration":
		return true
	}
	return false
}

// collectType records a declared type and its base list. C# syntax does not
// distinguish base classes from interfaces, so the split follows the I-prefix
// naming convention; it only affects chain order, not membership.
func collectType(node *sitter.Node, source []byte, path string, model *Model, declNames map[uint32]bool) {
	nameNode := node.ChildByFieldName("name")
	name := parser.GetNodeText(nameNode, source)
	if name == "" {
		return
	}
	declNames[nameNode.StartByte()] = true

	info := model.Types[name]
	if info == nil {
		info = &TypeInfo{Name: name}
		model.Types[name] = info
	}
	info.Declared = true
	info.File = path

	// The grammar does not bind base_list to a field, so scan direct children.
	var bases *sitter.Node
	for i := range int(node.ChildCount()) {
		if child := node.Child(i); child.Type() == "base_list" {
			bases = child
			break
		}
	}
	if bases != nil {
		for i := range int(bases.NamedChildCount()) {
			base := stripGenericArgs(parser.GetNodeText(bases.NamedChild(i), source))
			if base == "" || contains(info.Bases, base) || contains(info.Interfaces, base) {
				continue
			}
			if looksLikeInterface(base) {
				info.Interfaces = append(info.Interfaces, base)
			} else {
				info.Bases = append(info.Bases, base)
			}
		}
	}
}

// collectMember records one class body declaration and, for members with a
// body, the calls made inside it.
func collectMember(node *sitter.Node, source []byte, className, path string, regions []regionSpan, model *Model, unit *FileUnit, declNames map[uint32]bool) {
	var kind MemberKind
	switch node.Type() {
	case "method_declaration":
		kind = KindMethod
	case "property_declaration":
		kind = KindProperty
	case "field_declaration", "event_field_declaration":
		collectFields(node, source, className, path, regions, model, declNames)
		return
	case "constructor_declaration", "destructor_declaration", "operator_declaration",
		"conversion_operator_declaration", "indexer_declaration", "event_declaration":
		kind = KindOther
	default:
		return
	}

	nameNode := node.ChildByFieldName("name")
	name := parser.GetNodeText(nameNode, source)
	if name == "" && kind == KindOther {
		name = parser.GetNodeText(node.ChildByFieldName("type"), source)
	}
	if name == "" {
		return
	}
	if nameNode != nil {
		declNames[nameNode.StartByte()] = true
	}

	modifiers := collectModifiers(node, source)
	line := node.StartPoint().Row + 1

	member := &Member{
		Name:       name,
		Class:      className,
		Kind:       kind,
		ReturnType: returnTypeOf(node, source),
		IsOverride: modifiers["override"],
		IsStatic:   modifiers["static"],
		Attributes: collectAttributes(node, source),
		Region:     regionFor(regions, line),
		File:       path,
		Line:       line,
		EndLine:    node.EndPoint().Row + 1,
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := range int(params.NamedChildCount()) {
			p := params.NamedChild(i)
			if p.Type() != "parameter" {
				continue
			}
			text := parser.GetNodeText(p, source)
			if i == 0 && member.IsStatic && strings.HasPrefix(text, "this ") {
				member.IsExtension = true
				continue
			}
			member.Params = append(member.Params, Param{
				Type:       stripGenericArgs(parser.GetNodeText(p.ChildByFieldName("type"), source)),
				Name:       parser.GetNodeText(p.ChildByFieldName("name"), source),
				HasDefault: hasDefaultValue(p, text),
			})
		}
	}

	model.Members = append(model.Members, member)

	if body := node.ChildByFieldName("body"); body != nil {
		collectCalls(body, source, name, unit)
	}
}

// collectFields records each declarator of a field declaration, plus const
// string values for registration-name resolution.
func collectFields(node *sitter.Node, source []byte, className, path string, regions []regionSpan, model *Model, declNames map[uint32]bool) {
	modifiers := collectModifiers(node, source)
	attrs := collectAttributes(node, source)
	line := node.StartPoint().Row + 1

	for _, decl := range parser.FindNodesByType(node, source, "variable_declarator") {
		var nameNode *sitter.Node
		for i := range int(decl.NamedChildCount()) {
			if child := decl.NamedChild(i); child.Type() == "identifier" {
				nameNode = child
				break
			}
		}
		name := parser.GetNodeText(nameNode, source)
		if name == "" {
			continue
		}
		declNames[nameNode.StartByte()] = true

		model.Members = append(model.Members, &Member{
			Name:       name,
			Class:      className,
			Kind:       KindField,
			IsStatic:   modifiers["static"] || modifiers["const"],
			Attributes: attrs,
			Region:     regionFor(regions, line),
			File:       path,
			Line:       line,
			EndLine:    node.EndPoint().Row + 1,
		})

		if modifiers["const"] {
			if lits := parser.FindNodesByType(decl, source, "string_literal"); len(lits) > 0 {
				value := unquote(parser.GetNodeText(lits[0], source))
				model.Constants[name] = value
				if className != "" {
					model.Constants[className+"."+name] = value
				}
			}
		}
	}
}

// collectCalls walks a member body recording every invocation with its
// argument shapes.
func collectCalls(body *sitter.Node, source []byte, caller string, unit *FileUnit) {
	parser.WalkTyped(body, source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType != "invocation_expression" {
			return true
		}

		callee, receiver := calleeOf(node, source)
		if callee == "" || callee == "nameof" {
			return true
		}

		call := CallSite{
			Caller:   caller,
			Callee:   callee,
			Receiver: receiver,
			Line:     node.StartPoint().Row + 1,
		}
		if args := node.ChildByFieldName("arguments"); args != nil {
			for i := range int(args.NamedChildCount()) {
				arg := args.NamedChild(i)
				if arg.Type() != "argument" {
					continue
				}
				call.Args = append(call.Args, classifyArg(arg, source))
			}
		}
		unit.Calls = append(unit.Calls, call)
		return true
	})
}

// calleeOf extracts the invoked member name and receiver text. Generic
// arguments are stripped so Foo<int>() resolves to Foo.
func calleeOf(node *sitter.Node, source []byte) (callee, receiver string) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return "", ""
	}
	switch fn.Type() {
	case "member_access_expression":
		callee = stripGenericArgs(parser.GetNodeText(fn.ChildByFieldName("name"), source))
		receiver = parser.GetNodeText(fn.ChildByFieldName("expression"), source)
	case "identifier", "generic_name":
		callee = stripGenericArgs(parser.GetNodeText(fn, source))
	default:
		// Conditional access and chained calls: take the last dotted segment.
		text := parser.GetNodeText(fn, source)
		if idx := strings.LastIndex(text, "."); idx >= 0 {
			receiver = strings.TrimSuffix(text[:idx], "?")
			text = text[idx+1:]
		}
		callee = stripGenericArgs(text)
	}
	return callee, receiver
}

// classifyArg reduces an argument node to the shape the usage analysis needs.
func classifyArg(arg *sitter.Node, source []byte) Arg {
	expr := arg.NamedChild(int(arg.NamedChildCount()) - 1)
	if expr == nil {
		return Arg{Kind: ArgOther, Text: parser.GetNodeText(arg, source)}
	}

	switch expr.Type() {
	case "string_literal", "verbatim_string_literal", "raw_string_literal":
		return Arg{Kind: ArgString, Text: unquote(parser.GetNodeText(expr, source))}
	case "identifier":
		return Arg{Kind: ArgIdent, Text: parser.GetNodeText(expr, source)}
	case "member_access_expression":
		return Arg{Kind: ArgMember, Text: parser.GetNodeText(expr, source)}
	case "lambda_expression", "anonymous_method_expression":
		return classifyLambda(expr, source)
	case "invocation_expression":
		if callee, _ := calleeOf(expr, source); callee == "nameof" {
			target := ""
			if args := expr.ChildByFieldName("arguments"); args != nil {
				target = lastSegment(parser.GetNodeText(args, source))
			}
			return Arg{Kind: ArgNameof, Text: target}
		}
	}
	return Arg{Kind: ArgOther, Text: parser.GetNodeText(expr, source)}
}

// classifyLambda records the parameter count and every member the lambda
// body names, so delegate registrations can be resolved.
func classifyLambda(expr *sitter.Node, source []byte) Arg {
	out := Arg{Kind: ArgLambda, Text: parser.GetNodeText(expr, source)}

	for i := range int(expr.ChildCount()) {
		child := expr.Child(i)
		switch child.Type() {
		case "parameter_list":
			for j := range int(child.NamedChildCount()) {
				if child.NamedChild(j).Type() == "parameter" {
					out.LambdaParams++
				}
			}
		case "identifier":
			// x => body form: the bare identifier before the arrow.
			if out.LambdaParams == 0 {
				out.LambdaParams = 1
			}
		}
	}

	body := expr.ChildByFieldName("body")
	if body == nil {
		return out
	}
	switch body.Type() {
	case "identifier", "member_access_expression":
		out.LambdaCallees = append(out.LambdaCallees, lastSegment(parser.GetNodeText(body, source)))
	default:
		parser.WalkTyped(body, source, func(node *sitter.Node, nodeType string, source []byte) bool {
			if nodeType == "invocation_expression" {
				if callee, _ := calleeOf(node, source); callee != "" && callee != "nameof" {
					out.LambdaCallees = append(out.LambdaCallees, callee)
				}
			}
			return true
		})
	}
	return out
}

// collectRefs records every identifier and member-access name in the tree,
// skipping the name nodes of declarations so a member's own declaration
// never counts as a reference to it.
func collectRefs(root *sitter.Node, source []byte, unit *FileUnit, declNames map[uint32]bool) {
	parser.WalkTyped(root, source, func(node *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "identifier":
			if !declNames[node.StartByte()] {
				unit.Refs[parser.GetNodeText(node, source)] = true
			}
		case "member_access_expression":
			unit.Refs[parser.GetNodeText(node, source)] = true
		case "invocation_expression":
			// nameof(Target) references its target textually.
			if callee, _ := calleeOf(node, source); callee == "nameof" {
				if args := node.ChildByFieldName("arguments"); args != nil {
					unit.Refs[lastSegment(parser.GetNodeText(args, source))] = true
				}
			}
		}
		return true
	})
}

// regionSpan is one #region block, by line range.
type regionSpan struct {
	name  string
	start uint32
	end   uint32
}

// scanRegions finds #region blocks by scanning source lines. Regions are
// preprocessor trivia, so a text scan is more reliable than grammar nodes.
func scanRegions(source []byte) []regionSpan {
	var spans []regionSpan
	var open []int

	lines := strings.Split(string(source), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#region"):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#region"))
			spans = append(spans, regionSpan{name: name, start: uint32(i + 1)})
			open = append(open, len(spans)-1)
		case strings.HasPrefix(trimmed, "#endregion"):
			if len(open) > 0 {
				spans[open[len(open)-1]].end = uint32(i + 1)
				open = open[:len(open)-1]
			}
		}
	}
	for _, idx := range open {
		spans[idx].end = uint32(len(lines))
	}
	return spans
}

// regionFor returns the innermost region containing a line. Spans are in
// start order, so the last containing span is the innermost.
func regionFor(spans []regionSpan, line uint32) string {
	name := ""
	for _, s := range spans {
		if line >= s.start && line <= s.end {
			name = s.name
		}
	}
	return name
}

var knownModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "override": true, "virtual": true, "abstract": true,
	"sealed": true, "async": true, "extern": true, "const": true,
	"readonly": true, "partial": true, "new": true, "unsafe": true,
}

func collectModifiers(node *sitter.Node, source []byte) map[string]bool {
	mods := make(map[string]bool)
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		text := parser.GetNodeText(child, source)
		if child.Type() == "modifier" || knownModifiers[text] {
			mods[text] = true
		}
	}
	return mods
}

// collectAttributes returns the attribute names on a declaration, with any
// Attribute suffix stripped.
func collectAttributes(node *sitter.Node, source []byte) []string {
	var attrs []string
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "attribute_list" {
			continue
		}
		for j := range int(child.NamedChildCount()) {
			attr := child.NamedChild(j)
			if attr.Type() != "attribute" {
				continue
			}
			name := parser.GetNodeText(attr.ChildByFieldName("name"), source)
			name = strings.TrimSuffix(lastSegment(name), "Attribute")
			if name != "" {
				attrs = append(attrs, name)
			}
		}
	}
	return attrs
}

func returnTypeOf(node *sitter.Node, source []byte) string {
	if t := node.ChildByFieldName("returns"); t != nil {
		return parser.GetNodeText(t, source)
	}
	if t := node.ChildByFieldName("type"); t != nil {
		return parser.GetNodeText(t, source)
	}
	return ""
}

func hasDefaultValue(param *sitter.Node, text string) bool {
	for i := range int(param.ChildCount()) {
		if param.Child(i).Type() == "equals_value_clause" {
			return true
		}
	}
	return strings.Contains(text, "=")
}

// stripGenericArgs removes a trailing type-argument list: Foo<int> -> Foo.
func stripGenericArgs(s string) string {
	if idx := strings.Index(s, "<"); idx > 0 && strings.HasSuffix(s, ">") {
		return s[:idx]
	}
	return s
}

// unquote strips string literal syntax, leaving the value.
func unquote(s string) string {
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "@")
	s = strings.Trim(s, "\"")
	return s
}

// lastSegment returns the final dotted segment of an expression, with any
// surrounding parentheses and generic arguments removed.
func lastSegment(s string) string {
	s = strings.Trim(s, "()")
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		s = s[idx+1:]
	}
	return stripGenericArgs(s)
}

// looksLikeInterface follows the C# I-prefix convention: IPlayer, IEntity.
func looksLikeInterface(name string) bool {
	return len(name) > 1 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
