// Package pydecor classifies Python decorator expressions: pytest fixture
// decorators, pytest.mark.* markers, and parametrize's indirect= argument.
// It walks tree-sitter fields the way C360Studio-semspec's extractDecorators
// walks decorator children, but against pyast.Node rather than a raw
// tree-sitter node, and targets pytest's specific decorator shapes instead
// of a generic decorator list.
package pydecor

import (
	"strings"

	"github.com/pyfixls/pyfixls/internal/pyast"
)

// IsFixtureDecorator reports whether dec is @pytest.fixture, @fixture, or
// either form called with arguments, e.g. @pytest.fixture(scope="module").
func IsFixtureDecorator(dec *pyast.Node) bool {
	callee, _ := calleeAndArgs(dec)
	if callee == nil {
		return false
	}
	return dottedSuffix(callee) == "fixture"
}

// IsPytestMark reports whether dec is @pytest.mark.<tag>, with or without
// call arguments, e.g. @pytest.mark.usefixtures("db").
func IsPytestMark(dec *pyast.Node, tag string) bool {
	callee, _ := calleeAndArgs(dec)
	if callee == nil {
		return false
	}
	parts := dottedParts(callee)
	if len(parts) < 3 {
		return false
	}
	last := parts[len(parts)-1]
	markIdx := len(parts) - 2
	return parts[markIdx] == "mark" && last == tag
}

// ParametrizeIndirect reports the indirect= argument of an
// @pytest.mark.parametrize(...) decorator. all is true when indirect=True;
// names holds the listed argument names when indirect is a list/tuple of
// strings. Returns ok=false if dec is not a parametrize decorator or it
// carries no indirect argument.
func ParametrizeIndirect(dec *pyast.Node) (names []string, all bool, ok bool) {
	if !IsPytestMark(dec, "parametrize") {
		return nil, false, false
	}
	_, args := calleeAndArgs(dec)
	if args == nil {
		return nil, false, false
	}
	for _, arg := range args.NamedChildren() {
		if arg.Type() != "keyword_argument" {
			continue
		}
		nameNode := arg.Field("name")
		if nameNode == nil || nameNode.Text() != "indirect" {
			continue
		}
		val := arg.Field("value")
		if val == nil {
			return nil, false, true
		}
		switch val.Type() {
		case "true":
			return nil, true, true
		case "false":
			return nil, false, true
		case "list", "tuple":
			for _, item := range val.NamedChildren() {
				if s := unquote(pyast.StringValue(item)); s != "" {
					names = append(names, s)
				}
			}
			return names, false, true
		case "string":
			if s := unquote(val.Text()); s != "" {
				return []string{s}, false, true
			}
		}
		return nil, false, true
	}
	return nil, false, false
}

// UsefixturesArgs returns the string-literal argument nodes of an
// @pytest.mark.usefixtures(...) decorator, in source order.
func UsefixturesArgs(dec *pyast.Node) []*pyast.Node {
	if !IsPytestMark(dec, "usefixtures") {
		return nil
	}
	_, args := calleeAndArgs(dec)
	if args == nil {
		return nil
	}
	var out []*pyast.Node
	for _, arg := range args.NamedChildren() {
		if arg.Type() == "string" {
			out = append(out, arg)
		}
	}
	return out
}

// ParametrizeFirstArg returns the first positional argument node of an
// @pytest.mark.parametrize(...) decorator (the comma-separated parameter
// names literal), or nil if it is not a plain string literal — a
// dynamically built first argument (a variable, a function call) can't
// be resolved to parameter names without executing it.
func ParametrizeFirstArg(dec *pyast.Node) *pyast.Node {
	if !IsPytestMark(dec, "parametrize") {
		return nil
	}
	_, args := calleeAndArgs(dec)
	if args == nil {
		return nil
	}
	for _, arg := range args.NamedChildren() {
		if arg.Type() == "string" {
			return arg
		}
		if arg.Type() == "keyword_argument" {
			continue
		}
		return nil
	}
	return nil
}

// calleeAndArgs unwraps a decorator node to its callee expression
// (identifier or dotted attribute chain) and, if the decorator was
// invoked, its argument_list.
func calleeAndArgs(dec *pyast.Node) (callee, args *pyast.Node) {
	if dec == nil || dec.Type() != "decorator" {
		return nil, nil
	}
	expr := lastNamedChild(dec)
	if expr == nil {
		return nil, nil
	}
	if expr.Type() == "call" {
		return expr.Field("function"), expr.Field("arguments")
	}
	return expr, nil
}

func lastNamedChild(n *pyast.Node) *pyast.Node {
	c := n.NamedChildCount()
	if c == 0 {
		return nil
	}
	return n.NamedChild(c - 1)
}

// dottedParts flattens an identifier or chain of attribute nodes into its
// component names in order, e.g. pytest.mark.slow -> ["pytest","mark","slow"].
func dottedParts(n *pyast.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return []string{n.Text()}
	case "attribute":
		obj := n.Field("object")
		attr := n.Field("attribute")
		parts := dottedParts(obj)
		if attr != nil {
			parts = append(parts, attr.Text())
		}
		return parts
	default:
		return nil
	}
}

func dottedSuffix(n *pyast.Node) string {
	parts := dottedParts(n)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
