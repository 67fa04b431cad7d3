package ast

import (
	"strconv"
	"strings"
)

// CanonicalKey serializes the structure of the subtree rooted at n:
// kinds, operators, contexts, identifiers, literals and field roles.
// Source positions are excluded, so two subtrees have equal keys exactly
// when they are structurally equal.
func CanonicalKey(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder

	// Frames either open a node or emit its closing paren.
	type frame struct {
		node  *Node
		close bool
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.close {
			b.WriteByte(')')
			continue
		}
		cur := f.node
		if cur.field != FieldNone && cur != n {
			b.WriteString(cur.field.String())
			b.WriteByte('=')
		}
		b.WriteString(cur.kind.String())
		b.WriteByte('(')
		for i, op := range cur.ops {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(op.String())
		}
		b.WriteByte('|')
		b.WriteString(cur.ctx.String())
		b.WriteByte('|')
		b.WriteString(strconv.Quote(cur.ident))
		b.WriteByte('|')
		b.WriteString(strconv.Quote(cur.alias))
		b.WriteByte('|')
		b.WriteString(strconv.Quote(cur.literal))
		stack = append(stack, frame{close: true})
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: cur.children[i]})
		}
		// Separators between children are emitted by the child's own
		// field prefix; the leading space keeps payload and children apart.
		if len(cur.children) > 0 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
