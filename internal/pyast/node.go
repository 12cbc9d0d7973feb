package pyast

import sitter "github.com/smacker/go-tree-sitter"

// Node wraps a tree-sitter node with the source bytes needed to resolve its
// text and line/character positions, so callers never touch the
// tree-sitter API directly.
type Node struct {
	n   *sitter.Node
	src []byte
}

func wrap(n *sitter.Node, src []byte) *Node {
	if n == nil {
		return nil
	}
	return &Node{n: n, src: src}
}

// Type returns the tree-sitter grammar node type, e.g. "function_definition".
func (n *Node) Type() string {
	if n == nil || n.n == nil {
		return ""
	}
	return n.n.Type()
}

// Text returns the source text spanned by this node.
func (n *Node) Text() string {
	if n == nil || n.n == nil {
		return ""
	}
	return string(n.src[n.n.StartByte():n.n.EndByte()])
}

// Line returns the 1-based line of the node's start position.
func (n *Node) Line() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.StartPoint().Row) + 1
}

// EndLine returns the 1-based line of the node's end position.
func (n *Node) EndLine() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.EndPoint().Row) + 1
}

// Char returns the 0-based character (byte-column) of the node's start
// position on its start line.
func (n *Node) Char() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.StartPoint().Column)
}

// EndChar returns the 0-based character of the node's end position on its
// end line.
func (n *Node) EndChar() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.EndPoint().Column)
}

// StartByte returns the byte offset of the node's start.
func (n *Node) StartByte() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.StartByte())
}

// EndByte returns the byte offset of the node's end.
func (n *Node) EndByte() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.EndByte())
}

// ChildCount returns the number of children, named and anonymous.
func (n *Node) ChildCount() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.ChildCount())
}

// Child returns the i'th child (named or anonymous).
func (n *Node) Child(i int) *Node {
	if n == nil || n.n == nil {
		return nil
	}
	return wrap(n.n.Child(i), n.src)
}

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int {
	if n == nil || n.n == nil {
		return 0
	}
	return int(n.n.NamedChildCount())
}

// NamedChild returns the i'th named child.
func (n *Node) NamedChild(i int) *Node {
	if n == nil || n.n == nil {
		return nil
	}
	return wrap(n.n.NamedChild(i), n.src)
}

// Field returns the child with the given grammar field name (e.g. "name",
// "body", "parameters"), or nil if absent.
func (n *Node) Field(name string) *Node {
	if n == nil || n.n == nil {
		return nil
	}
	return wrap(n.n.ChildByFieldName(name), n.src)
}

// NamedChildren returns all named children as a slice.
func (n *Node) NamedChildren() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, n.NamedChildCount())
	for i := 0; i < n.NamedChildCount(); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// HasError reports whether this node's subtree contains a parse error.
func (n *Node) HasError() bool {
	if n == nil || n.n == nil {
		return false
	}
	return n.n.HasError()
}
