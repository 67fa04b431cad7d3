package ast

import "fmt"

// Position is a location in source code. Line is 1-based, Column is the
// 0-based byte offset within the line.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String formats the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p sorts before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Field is the role a child fills in its parent.
type Field uint8

const (
	FieldNone Field = iota
	FieldBody
	FieldOrElse
	FieldFinalBody
	FieldHandlers
	FieldDecorators
	FieldArgs
	FieldVararg
	FieldKwarg
	FieldDefaults
	FieldKeywords
	FieldBases
	FieldReturns
	FieldAnnotation
	FieldTargets
	FieldTarget
	FieldValue
	FieldIter
	FieldTest
	FieldFunc
	FieldLeft
	FieldRight
	FieldOperand
	FieldValues
	FieldElts
	FieldKeys
	FieldComparators
	FieldGenerators
	FieldIfs
	FieldElt
	FieldKey
	FieldSlice
	FieldLower
	FieldUpper
	FieldStep
	FieldNames
	FieldItems
	FieldContextExpr
	FieldOptionalVars
	FieldType
	FieldExc
	FieldCause
	FieldMsg
	FieldSubject
	FieldCases
	FieldPattern
	FieldGuard
)

var fieldNames = [...]string{
	FieldNone:         "",
	FieldBody:         "body",
	FieldOrElse:       "orelse",
	FieldFinalBody:    "finalbody",
	FieldHandlers:     "handlers",
	FieldDecorators:   "decorator_list",
	FieldArgs:         "args",
	FieldVararg:       "vararg",
	FieldKwarg:        "kwarg",
	FieldDefaults:     "defaults",
	FieldKeywords:     "keywords",
	FieldBases:        "bases",
	FieldReturns:      "returns",
	FieldAnnotation:   "annotation",
	FieldTargets:      "targets",
	FieldTarget:       "target",
	FieldValue:        "value",
	FieldIter:         "iter",
	FieldTest:         "test",
	FieldFunc:         "func",
	FieldLeft:         "left",
	FieldRight:        "right",
	FieldOperand:      "operand",
	FieldValues:       "values",
	FieldElts:         "elts",
	FieldKeys:         "keys",
	FieldComparators:  "comparators",
	FieldGenerators:   "generators",
	FieldIfs:          "ifs",
	FieldElt:          "elt",
	FieldKey:          "key",
	FieldSlice:        "slice",
	FieldLower:        "lower",
	FieldUpper:        "upper",
	FieldStep:         "step",
	FieldNames:        "names",
	FieldItems:        "items",
	FieldContextExpr:  "context_expr",
	FieldOptionalVars: "optional_vars",
	FieldType:         "type",
	FieldExc:          "exc",
	FieldCause:        "cause",
	FieldMsg:          "msg",
	FieldSubject:      "subject",
	FieldCases:        "cases",
	FieldPattern:      "pattern",
	FieldGuard:        "guard",
}

// String returns the field name ("body", "targets", ...).
func (f Field) String() string {
	if int(f) >= len(fieldNames) {
		return "invalid"
	}
	return fieldNames[f]
}

// Context is the expression context of a Name, Attribute, Subscript,
// Starred, List or Tuple.
type Context uint8

const (
	CtxNone Context = iota
	Load
	Store
	Del
)

// String returns the context label.
func (c Context) String() string {
	switch c {
	case Load:
		return "Load"
	case Store:
		return "Store"
	case Del:
		return "Del"
	default:
		return ""
	}
}

// Spec holds the payload of a node under construction.
type Spec struct {
	Kind    Kind
	Start   Position
	End     Position
	Ident   string
	Alias   string
	Literal string
	Ops     []Operator
	Ctx     Context
}

// Child pairs a finished node with the role it fills in its parent.
type Child struct {
	Field Field
	Node  *Node
}

// Node is one element of the syntax tree. All fields are read through
// accessors; a Node never changes after NewNode returns.
type Node struct {
	kind     Kind
	field    Field
	start    Position
	end      Position
	ident    string
	alias    string
	literal  string
	ops      []Operator
	ctx      Context
	children []*Node
	parent   *Node
}

// NewNode builds a node from spec and adopts children in order.
// Children must be freshly built; adopting a node that already has a parent
// panics.
func NewNode(spec Spec, children ...Child) *Node {
	n := &Node{
		kind:    spec.Kind,
		start:   spec.Start,
		end:     spec.End,
		ident:   spec.Ident,
		alias:   spec.Alias,
		literal: spec.Literal,
		ctx:     spec.Ctx,
	}
	if len(spec.Ops) > 0 {
		n.ops = append([]Operator(nil), spec.Ops...)
	}
	if len(children) > 0 {
		n.children = make([]*Node, 0, len(children))
	}
	for _, c := range children {
		if c.Node == nil {
			continue
		}
		if c.Node.parent != nil {
			panic(fmt.Sprintf("ast: %s at %s is already attached", c.Node.kind, c.Node.start))
		}
		c.Node.parent = n
		c.Node.field = c.Field
		n.children = append(n.children, c.Node)
	}
	return n
}

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Field returns the role this node fills in its parent (FieldNone for a root).
func (n *Node) Field() Field { return n.field }

// Pos returns the start position.
func (n *Node) Pos() Position { return n.start }

// End returns the end position.
func (n *Node) End() Position { return n.end }

// Ident returns the identifier payload: the id of a Name, the name of a
// FunctionDef, ClassDef, Arg or Keyword, the attribute of an Attribute, the
// imported name of an Alias or the module of an ImportFrom.
func (n *Node) Ident() string { return n.ident }

// Alias returns the "as" name of an Alias node.
func (n *Node) Alias() string { return n.alias }

// Literal returns the source text of a Constant.
func (n *Node) Literal() string { return n.literal }

// Op returns the first operator, or OpNone.
func (n *Node) Op() Operator {
	if len(n.ops) == 0 {
		return OpNone
	}
	return n.ops[0]
}

// Ops returns a copy of the operator list (Compare nodes may carry several).
func (n *Node) Ops() []Operator {
	return append([]Operator(nil), n.ops...)
}

// Ctx returns the expression context.
func (n *Node) Ctx() Context { return n.ctx }

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// In returns the children filling field f, in order.
func (n *Node) In(f Field) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.field == f {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first child filling field f, or nil.
func (n *Node) First(f Field) *Node {
	for _, c := range n.children {
		if c.field == f {
			return c
		}
	}
	return nil
}

// Enclosing walks parent links and returns the nearest ancestor for which
// match reports true, or nil.
func (n *Node) Enclosing(match func(*Node) bool) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if match(p) {
			return p
		}
	}
	return nil
}

// String returns a short description such as "Name(x)@3:4".
func (n *Node) String() string {
	if n.ident != "" {
		return fmt.Sprintf("%s(%s)@%s", n.kind, n.ident, n.start)
	}
	return fmt.Sprintf("%s@%s", n.kind, n.start)
}

// Unit is one parsed source file.
type Unit struct {
	Path   string
	Source []byte
	Root   *Node
	nodes  int
	lines  []int
}

// NewUnit wraps a parsed root.
func NewUnit(path string, source []byte, root *Node) *Unit {
	lines := []int{0}
	for i, b := range source {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Unit{
		Path:   path,
		Source: source,
		Root:   root,
		nodes:  Count(root),
		lines:  lines,
	}
}

// offset converts a position to a byte offset in Source, or -1.
func (u *Unit) offset(p Position) int {
	if p.Line < 1 || p.Line > len(u.lines) {
		return -1
	}
	off := u.lines[p.Line-1] + p.Column
	if off > len(u.Source) {
		return -1
	}
	return off
}

// Text returns the source text spanned by n, or "" when the unit carries
// no source for it.
func (u *Unit) Text(n *Node) string {
	start, end := u.offset(n.start), u.offset(n.end)
	if start < 0 || end < start {
		return ""
	}
	return string(u.Source[start:end])
}

// NodeCount returns the number of nodes in the tree.
func (u *Unit) NodeCount() int {
	return u.nodes
}

// TopLevel returns the module body statements.
func (u *Unit) TopLevel() []*Node {
	if u.Root == nil {
		return nil
	}
	return u.Root.In(FieldBody)
}
