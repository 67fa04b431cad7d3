package ast

import (
	"strings"
	"testing"
)

func name(id string, ctx Context, line, col int) *Node {
	return NewNode(Spec{Kind: KindName, Ident: id, Ctx: ctx, Start: Position{Line: line, Column: col}})
}

func binop(op Operator, l, r *Node, line int) *Node {
	return NewNode(Spec{Kind: KindBinOp, Ops: []Operator{op}, Start: Position{Line: line}},
		Child{Field: FieldLeft, Node: l},
		Child{Field: FieldRight, Node: r},
	)
}

func TestNewNodeLinksParent(t *testing.T) {
	x := name("x", Load, 1, 0)
	y := name("y", Load, 1, 4)
	sum := binop(OpAdd, x, y, 1)

	if x.Parent() != sum || y.Parent() != sum {
		t.Fatal("children should point at their parent")
	}
	if x.Field() != FieldLeft || y.Field() != FieldRight {
		t.Errorf("fields = %v, %v", x.Field(), y.Field())
	}
	if sum.First(FieldRight) != y {
		t.Error("First(FieldRight) should return y")
	}
	if got := len(sum.In(FieldLeft)); got != 1 {
		t.Errorf("In(FieldLeft) len = %d, want 1", got)
	}
}

func TestNewNodeRejectsReattach(t *testing.T) {
	x := name("x", Load, 1, 0)
	_ = NewNode(Spec{Kind: KindExpr}, Child{Field: FieldValue, Node: x})

	defer func() {
		if recover() == nil {
			t.Error("expected panic when adopting an attached node")
		}
	}()
	_ = NewNode(Spec{Kind: KindExpr}, Child{Field: FieldValue, Node: x})
}

func TestChildrenIsACopy(t *testing.T) {
	sum := binop(OpAdd, name("a", Load, 1, 0), name("b", Load, 1, 4), 1)
	kids := sum.Children()
	kids[0] = nil
	if sum.Child(0) == nil {
		t.Error("mutating Children() result must not affect the node")
	}
}

func TestInspectPreOrder(t *testing.T) {
	// (a + b) * c
	tree := binop(OpMult, binop(OpAdd, name("a", Load, 1, 1), name("b", Load, 1, 5), 1), name("c", Load, 1, 10), 1)

	var got []string
	Inspect(tree, func(n *Node) bool {
		if n.Kind() == KindName {
			got = append(got, n.Ident())
		} else {
			got = append(got, n.Kind().String())
		}
		return true
	})
	want := "BinOp BinOp a b c"
	if strings.Join(got, " ") != want {
		t.Errorf("order = %q, want %q", strings.Join(got, " "), want)
	}
}

func TestInspectSkipsChildren(t *testing.T) {
	tree := binop(OpMult, binop(OpAdd, name("a", Load, 1, 0), name("b", Load, 1, 0), 1), name("c", Load, 1, 0), 1)
	visited := 0
	Inspect(tree, func(n *Node) bool {
		visited++
		return n == tree
	})
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
}

func TestInspectDeepTree(t *testing.T) {
	n := name("leaf", Load, 1, 0)
	for i := 0; i < 100000; i++ {
		n = NewNode(Spec{Kind: KindUnaryOp, Ops: []Operator{OpUSub}}, Child{Field: FieldOperand, Node: n})
	}
	if got := Count(n); got != 100001 {
		t.Errorf("Count = %d, want 100001", got)
	}
	if CanonicalKey(n) == "" {
		t.Error("CanonicalKey should handle deep trees")
	}
}

func TestCanonicalKeyIgnoresPositions(t *testing.T) {
	a := binop(OpAdd, name("x", Load, 1, 0), name("y", Load, 1, 4), 1)
	b := binop(OpAdd, name("x", Load, 7, 8), name("y", Load, 7, 12), 7)
	if CanonicalKey(a) != CanonicalKey(b) {
		t.Error("structurally equal trees must have equal keys")
	}
}

func TestCanonicalKeyDistinguishes(t *testing.T) {
	base := CanonicalKey(binop(OpAdd, name("x", Load, 1, 0), name("y", Load, 1, 0), 1))
	tests := []struct {
		name string
		node *Node
	}{
		{"operator", binop(OpSub, name("x", Load, 1, 0), name("y", Load, 1, 0), 1)},
		{"operand order", binop(OpAdd, name("y", Load, 1, 0), name("x", Load, 1, 0), 1)},
		{"identifier", binop(OpAdd, name("x", Load, 1, 0), name("z", Load, 1, 0), 1)},
		{"context", binop(OpAdd, name("x", Store, 1, 0), name("y", Load, 1, 0), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if CanonicalKey(tt.node) == base {
				t.Errorf("key should differ by %s", tt.name)
			}
		})
	}
}

func TestEnclosingFunction(t *testing.T) {
	inner := name("x", Load, 2, 4)
	fn := NewNode(Spec{Kind: KindFunctionDef, Ident: "f"},
		Child{Field: FieldBody, Node: NewNode(Spec{Kind: KindExpr}, Child{Field: FieldValue, Node: inner})})
	mod := NewNode(Spec{Kind: KindModule}, Child{Field: FieldBody, Node: fn})
	unit := NewUnit("m.py", nil, mod)

	if EnclosingFunction(inner) != fn {
		t.Error("expected f to enclose x")
	}
	if EnclosingFunction(fn) != nil {
		t.Error("f is at module level")
	}
	if unit.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4", unit.NodeCount())
	}
	if len(unit.TopLevel()) != 1 {
		t.Error("expected one top-level statement")
	}
}

func TestOperatorTokens(t *testing.T) {
	tests := []struct {
		tok  string
		want Operator
	}{
		{"+", OpAdd},
		{"+=", OpAdd},
		{"//=", OpFloorDiv},
		{"**", OpPow},
		{"@", OpMatMult},
	}
	for _, tt := range tests {
		got, ok := BinaryOperator(tt.tok)
		if !ok || got != tt.want {
			t.Errorf("BinaryOperator(%q) = %v, %v; want %v", tt.tok, got, ok, tt.want)
		}
	}
	if op, ok := CompareOperator("not in"); !ok || op != OpNotIn {
		t.Errorf("CompareOperator(not in) = %v", op)
	}
	if _, ok := BinaryOperator("=="); ok {
		t.Error("== is not a binary operator")
	}
	if !OpDiv.IsArithmetic() || OpMod.IsArithmetic() {
		t.Error("IsArithmetic covers + - * / only")
	}
}

func TestKindStrings(t *testing.T) {
	for _, k := range Kinds() {
		if k.String() == "" || k.String() == "Invalid" {
			t.Errorf("kind %d has no label", k)
		}
	}
	if !KindAsyncFor.IsLoop() || KindIf.IsLoop() {
		t.Error("IsLoop mismatch")
	}
	if !KindDict.IsLiteralContainer() || KindTuple.IsLiteralContainer() {
		t.Error("IsLiteralContainer mismatch")
	}
}

func TestSubtreeSizes(t *testing.T) {
	inner := binop(OpAdd, name("a", Load, 1, 0), name("b", Load, 1, 0), 1)
	tree := binop(OpMult, inner, name("c", Load, 1, 0), 1)
	sizes := SubtreeSizes(tree)
	if sizes[tree] != 5 || sizes[inner] != 3 {
		t.Errorf("sizes = %d, %d; want 5, 3", sizes[tree], sizes[inner])
	}
	if sizes[tree] != Count(tree) {
		t.Error("SubtreeSizes must agree with Count")
	}
}

func TestUnitText(t *testing.T) {
	src := []byte("x = 1\ny = a + b\n")
	sum := NewNode(Spec{Kind: KindBinOp, Start: Position{Line: 2, Column: 4}, End: Position{Line: 2, Column: 9}})
	unit := NewUnit("t.py", src, NewNode(Spec{Kind: KindModule}, Child{Field: FieldBody, Node: sum}))
	if got := unit.Text(sum); got != "a + b" {
		t.Errorf("Text = %q, want %q", got, "a + b")
	}
	out := NewNode(Spec{Kind: KindName, Start: Position{Line: 9}, End: Position{Line: 9, Column: 1}})
	if got := unit.Text(out); got != "" {
		t.Errorf("Text out of range = %q", got)
	}
}
