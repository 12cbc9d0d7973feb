// Package pyast adapts github.com/smacker/go-tree-sitter's Python grammar
// into the narrow AST-walk surface the analyzer needs: statements (including
// nested class bodies), function definitions (sync and async), decorator
// expressions, call expressions, name expressions, assignments, and the
// positions of string literals. Callers never import go-tree-sitter
// directly; everything crosses this boundary as a *Node.
package pyast

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// File is a parsed Python source file: its root node plus the source bytes
// needed to resolve text and positions.
type File struct {
	Root *Node
	Src  []byte
}

// Parser parses Python source into a *File. It is not safe for concurrent
// use by multiple goroutines against the same Parser value; callers that
// parse concurrently use one Parser per goroutine (the analyzer keeps them
// in a sync.Pool).
type Parser struct {
	sp *sitter.Parser
}

// NewParser constructs a Parser configured with the Python grammar.
func NewParser() *Parser {
	sp := sitter.NewParser()
	sp.SetLanguage(python.GetLanguage())
	return &Parser{sp: sp}
}

// Parse parses src and returns the resulting File. The returned tree may
// contain error nodes for malformed input; callers check Root.HasError()
// and proceed best-effort, matching tree-sitter's error-recovery model.
func (p *Parser) Parse(ctx context.Context, src []byte) (*File, error) {
	tree, err := p.sp.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	root := tree.RootNode()
	return &File{Root: wrap(root, src), Src: src}, nil
}

// TopLevelStatements returns the direct statement children of the module
// root (the "module" node's named children).
func (f *File) TopLevelStatements() []*Node {
	if f == nil || f.Root == nil {
		return nil
	}
	return f.Root.NamedChildren()
}

// Walk visits n and every descendant in pre-order, depth-first. fn returns
// false to skip descending into n's children.
func Walk(n *Node, fn func(n *Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < n.NamedChildCount(); i++ {
		Walk(n.NamedChild(i), fn)
	}
}

// Body returns the statement list of a block-bearing node (function_
// definition, class_definition, if_statement, for_statement, ...): its
// "body" field, flattened to that block's named children.
func Body(n *Node) []*Node {
	block := n.Field("body")
	if block == nil {
		return nil
	}
	return block.NamedChildren()
}

// Unwrap strips a decorated_definition wrapper down to the function_
// definition or class_definition it decorates, and returns the decorators
// in source order. For any other node it returns (n, nil).
func Unwrap(n *Node) (def *Node, decorators []*Node) {
	if n == nil {
		return nil, nil
	}
	if n.Type() != "decorated_definition" {
		return n, nil
	}
	var inner *Node
	for i := 0; i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "decorator":
			decorators = append(decorators, c)
		case "function_definition", "class_definition":
			inner = c
		}
	}
	return inner, decorators
}

// IsFunctionDef reports whether n is a function_definition, possibly
// wrapped in decorated_definition or nested inside async_function_
// wrapping grammars that fold "async def" into function_definition
// directly (the Python grammar marks asyncness via a leading "async"
// child rather than a distinct node type).
func IsFunctionDef(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Type() == "function_definition" {
		return true
	}
	if n.Type() == "decorated_definition" {
		def, _ := Unwrap(n)
		return IsFunctionDef(def)
	}
	return false
}

// IsAsync reports whether a function_definition node is declared "async
// def" (the grammar exposes this as a leading anonymous "async" token
// rather than a field).
func IsAsync(n *Node) bool {
	if n == nil || n.ChildCount() == 0 {
		return false
	}
	return n.Child(0).Type() == "async"
}

// Params returns the individual parameter nodes of a function_definition's
// "parameters" field (identifier, typed_parameter, default_parameter,
// typed_default_parameter, list_splat_pattern, dictionary_splat_pattern).
func Params(fn *Node) []*Node {
	params := fn.Field("parameters")
	if params == nil {
		return nil
	}
	return params.NamedChildren()
}

// ParamName extracts the bare identifier from a parameter node, regardless
// of whether it carries a type annotation or default value.
func ParamName(p *Node) string {
	switch p.Type() {
	case "identifier":
		return p.Text()
	case "typed_parameter", "default_parameter", "typed_default_parameter":
		if id := p.Field("name"); id != nil {
			return id.Text()
		}
		if p.NamedChildCount() > 0 {
			return ParamName(p.NamedChild(0))
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		if p.NamedChildCount() > 0 {
			return ParamName(p.NamedChild(0))
		}
	}
	return ""
}

// StringValue returns the raw source text of a string node (including its
// quotes), or "" if n is not a string.
func StringValue(n *Node) string {
	if n == nil || n.Type() != "string" {
		return ""
	}
	return n.Text()
}

// ParamIdentNode returns the identifier node carrying a parameter's own
// name, regardless of whether it's typed, defaulted, or a splat — the
// node whose position is recorded as the parameter usage's own
// line/column.
func ParamIdentNode(p *Node) *Node {
	switch p.Type() {
	case "identifier":
		return p
	case "typed_parameter", "default_parameter", "typed_default_parameter":
		if id := p.Field("name"); id != nil {
			return id
		}
		if p.NamedChildCount() > 0 {
			return ParamIdentNode(p.NamedChild(0))
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		if p.NamedChildCount() > 0 {
			return ParamIdentNode(p.NamedChild(0))
		}
	}
	return nil
}

// IsClassDef reports whether n is a class_definition, possibly wrapped in
// decorated_definition.
func IsClassDef(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Type() == "class_definition" {
		return true
	}
	if n.Type() == "decorated_definition" {
		def, _ := Unwrap(n)
		return IsClassDef(def)
	}
	return false
}
