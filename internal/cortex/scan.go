package cortex

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// span is a half-open byte range [start, end) in the source.
type span struct {
	start, end int
}

func (s span) contains(pos int) bool {
	return pos >= s.start && pos < s.end
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// identRef is one identifier occurrence in expression position.
type identRef struct {
	span
	name      string
	shorthand bool // {name} object shorthand
}

// binding is a name declared inside a nested scope. Program-level
// declarations are not recorded.
type binding struct {
	name  string
	scope span
}

// scanResult is the lexical view of a sketch the rewriter works from.
type scanResult struct {
	// refs are identifiers in expression position, in source order.
	refs []identRef
	// opaque are comments and string-like literals.
	opaque []span
	// bindings are the names declared by nested functions and blocks.
	bindings []binding
	// names is every identifier or property name in the source.
	names map[string]struct{}
	// entry is true when the source defines the setup entry point.
	entry bool
}

func (r *scanResult) inOpaque(pos int) bool {
	for _, s := range r.opaque {
		if s.contains(pos) {
			return true
		}
	}
	return false
}

// shadowed reports whether ref reads a nested binding of the same name
// rather than the program-level declaration.
func (r *scanResult) shadowed(ref identRef) bool {
	for _, b := range r.bindings {
		if b.name == ref.name && b.scope.contains(ref.start) {
			return true
		}
	}
	return false
}

func (r *scanResult) hasNames(names ...string) bool {
	for _, n := range names {
		if _, ok := r.names[n]; !ok {
			return false
		}
	}
	return true
}

// scanSource parses src with tree-sitter and collects identifier usages,
// literal/comment ranges and the entry-point signal. The parser is created per
// call; tree-sitter parsers are not safe for concurrent use.
func scanSource(ctx context.Context, src []byte) (*scanResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sketch source: %w", err)
	}
	defer tree.Close()

	res := &scanResult{names: make(map[string]struct{})}
	walk(tree.RootNode(), src, res)
	return res, nil
}

func walk(n *sitter.Node, src []byte, res *scanResult) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "comment", "string", "regex":
		res.opaque = append(res.opaque, nodeSpan(n))
		return
	case "template_string":
		// Substitutions still hold live identifiers; keep walking into them.
		res.opaque = append(res.opaque, nodeSpan(n))
	case "identifier":
		name := n.Content(src)
		res.names[name] = struct{}{}
		if isBinding(n) {
			res.bind(n, name)
		} else {
			res.refs = append(res.refs, identRef{span: nodeSpan(n), name: name})
		}
	case "shorthand_property_identifier":
		name := n.Content(src)
		res.names[name] = struct{}{}
		res.refs = append(res.refs, identRef{span: nodeSpan(n), name: name, shorthand: true})
	case "shorthand_property_identifier_pattern":
		name := n.Content(src)
		res.names[name] = struct{}{}
		res.bind(n, name)
	case "property_identifier":
		res.names[n.Content(src)] = struct{}{}
	case "function_declaration", "generator_function_declaration":
		if fieldText(n, "name", src) == entryPoint {
			res.entry = true
		}
	case "variable_declarator":
		if fieldText(n, "name", src) == entryPoint {
			res.entry = true
		}
	case "assignment_expression":
		if left := n.ChildByFieldName("left"); left != nil && assignsEntry(left, src) {
			res.entry = true
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), src, res)
	}
}

func (r *scanResult) bind(id *sitter.Node, name string) {
	scope := bindingScope(id)
	if scope == nil || scope.Type() == "program" {
		return
	}
	r.bindings = append(r.bindings, binding{name: name, scope: nodeSpan(scope)})
}

// bindingScope returns the node whose extent a declared name is visible in:
// the function for parameters and var, the enclosing block for let, const,
// and declared functions and classes.
func bindingScope(id *sitter.Node) *sitter.Node {
	parent := id.Parent()
	if parent == nil {
		return nil
	}
	switch parent.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if sameNode(parent.ChildByFieldName("name"), id) {
			return enclosing(parent.Parent(), isBlock)
		}
	case "function_expression", "function", "generator_function", "class":
		if sameNode(parent.ChildByFieldName("name"), id) {
			return parent
		}
	}

	for n := parent; n != nil; n = n.Parent() {
		switch n.Type() {
		case "formal_parameters":
			return n.Parent()
		case "arrow_function", "catch_clause":
			return n
		case "variable_declaration":
			return enclosing(n.Parent(), isFunction)
		case "lexical_declaration":
			return enclosing(n.Parent(), isBlock)
		}
	}
	return nil
}

func enclosing(n *sitter.Node, match func(string) bool) *sitter.Node {
	for ; n != nil; n = n.Parent() {
		if match(n.Type()) {
			return n
		}
	}
	return nil
}

func isFunction(kind string) bool {
	switch kind {
	case "program", "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function",
		"arrow_function", "method_definition":
		return true
	}
	return false
}

func isBlock(kind string) bool {
	switch kind {
	case "statement_block", "for_statement", "for_in_statement", "switch_body", "class_body":
		return true
	}
	return isFunction(kind)
}

// assignsEntry matches `setup = ...` and `window.setup = ...`.
func assignsEntry(left *sitter.Node, src []byte) bool {
	switch left.Type() {
	case "identifier":
		return left.Content(src) == entryPoint
	case "member_expression":
		return fieldText(left, "property", src) == entryPoint
	}
	return false
}

// isBinding reports whether an identifier node declares a name rather than
// reading one: declarator names, parameters, function and class names.
func isBinding(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}

	switch parent.Type() {
	case "variable_declarator",
		"function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function",
		"class_declaration", "class":
		return sameNode(parent.ChildByFieldName("name"), n)
	case "arrow_function":
		return sameNode(parent.ChildByFieldName("parameter"), n)
	case "catch_clause":
		return sameNode(parent.ChildByFieldName("parameter"), n)
	case "assignment_pattern":
		return sameNode(parent.ChildByFieldName("left"), n)
	case "formal_parameters", "rest_pattern", "array_pattern":
		return true
	}
	return false
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(src)
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func nodeSpan(n *sitter.Node) span {
	return span{start: int(n.StartByte()), end: int(n.EndByte())}
}
