// Package sexpr implements the textual S-expression front end: a
// tokenizer and tree reader for the KB/observation input language, and a
// semantic loader that turns a parsed tree into predicates, rules,
// exclusions, and observations, grounded on
// original_source/src/s_expression.cpp's stack_t/reader_t.
package sexpr

import "strings"

// Kind classifies a parsed node.
type Kind uint8

const (
	// KindList is a parenthesized sequence of children, e.g. (pred a b).
	KindList Kind = iota
	// KindAtom is a bareword token: a symbol, predicate name, or variable.
	KindAtom
	// KindString is a double-quoted string literal.
	KindString
)

// Node is one parsed S-expression: either a list of children or a leaf
// token (bareword or quoted string). It mirrors the original's stack_t,
// collapsing its LIST/TUPLE/STRING distinction into one tree node kind
// plus a leaf Text field.
type Node struct {
	Kind     Kind
	Text     string // leaf token text (KindAtom, KindString)
	Children []*Node
	Line     int // 1-based source line the node started on
}

// IsFunctor reports whether n is a list whose first child is the atom
// name (e.g. n.IsFunctor("=>") for (=> lhs rhs)).
func (n *Node) IsFunctor(name string) bool {
	if n == nil || n.Kind != KindList || len(n.Children) == 0 {
		return false
	}
	first := n.Children[0]
	return first.Kind == KindAtom && first.Text == name
}

// Head returns the textual name of a list's first child, or "" if n is
// not a non-empty list.
func (n *Node) Head() string {
	if n == nil || n.Kind != KindList || len(n.Children) == 0 {
		return ""
	}
	return n.Children[0].Text
}

// Args returns a list node's children after the first (the functor
// itself), or nil if n is not a non-empty list.
func (n *Node) Args() []*Node {
	if n == nil || n.Kind != KindList || len(n.Children) == 0 {
		return nil
	}
	return n.Children[1:]
}

// String renders n back into S-expression text (stack_t::print).
func (n *Node) String() string {
	var b strings.Builder
	n.print(&b)
	return b.String()
}

func (n *Node) print(b *strings.Builder) {
	switch n.Kind {
	case KindString:
		b.WriteByte('"')
		b.WriteString(n.Text)
		b.WriteByte('"')
	case KindAtom:
		b.WriteString(n.Text)
	case KindList:
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(' ')
			}
			c.print(b)
		}
		b.WriteByte(')')
	}
}
