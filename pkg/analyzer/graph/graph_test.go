package graph

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
	"github.com/preciselake/preciselake/pkg/parser"
)

func parse(t *testing.T, src string) *ast.Unit {
	t.Helper()
	unit, err := parser.Parse([]byte(src), "test.py")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return unit
}

func TestNew(t *testing.T) {
	if New().paletteSize != DefaultPaletteSize {
		t.Errorf("default paletteSize = %d", New().paletteSize)
	}
	if New(WithPaletteSize(8)).paletteSize != 8 {
		t.Error("WithPaletteSize not applied")
	}
}

func TestSummarizeCollapsesKinds(t *testing.T) {
	// Module, Assign, Name, BinOp, BinOp, Name, Name, Name
	unit := parse(t, "x = a + b + c\n")
	g := Summarize(unit, DefaultPaletteSize)

	var labels []string
	for _, v := range g.Vertices {
		labels = append(labels, v.Label)
	}
	if got := strings.Join(labels, ","); got != "Module,Assign,Name,BinOp" {
		t.Errorf("vertices = %s", got)
	}
	if g.TotalNodes != unit.NodeCount() {
		t.Errorf("TotalNodes = %d, want %d", g.TotalNodes, unit.NodeCount())
	}
	for _, e := range [][2]string{{"Module", "Assign"}, {"Assign", "Name"}, {"Assign", "BinOp"}, {"BinOp", "BinOp"}, {"BinOp", "Name"}} {
		if !g.HasEdge(e[0], e[1]) {
			t.Errorf("missing edge %s -> %s", e[0], e[1])
		}
	}
	if len(g.Edges) != 5 {
		t.Errorf("edges = %+v", g.Edges)
	}
}

func TestSummarizeOrderAndPalette(t *testing.T) {
	unit := parse(t, "x = a + b + c\n")
	g := Summarize(unit, 20)
	want := map[string][2]int{
		"Module": {0, 0},
		"Assign": {1, 2},
		"Name":   {2, 5},
		"BinOp":  {3, 7},
	}
	for label, w := range want {
		v, ok := g.Vertex(label)
		if !ok {
			t.Fatalf("missing vertex %s", label)
		}
		if v.Order != w[0] || v.PaletteIndex != w[1] {
			t.Errorf("%s: order=%d palette=%d, want %v", label, v.Order, v.PaletteIndex, w)
		}
		if v.PaletteIndex < 0 || v.PaletteIndex >= 20 {
			t.Errorf("%s palette index out of range", label)
		}
	}
}

func TestToDOT(t *testing.T) {
	unit := parse(t, "def f(x):\n    return x * (x + 1)\n")
	g := Summarize(unit, DefaultPaletteSize)
	out, err := ToDOT(g, "tree")
	if err != nil {
		t.Fatalf("ToDOT: %v", err)
	}
	if !strings.HasPrefix(out, "strict digraph tree {") && !strings.HasPrefix(out, "digraph tree {") {
		t.Errorf("unexpected header: %q", strings.SplitN(out, "\n", 2)[0])
	}
	for _, v := range g.Vertices {
		if !strings.Contains(out, v.Label) {
			t.Errorf("DOT missing vertex %s", v.Label)
		}
	}
	if !strings.Contains(out, "BinOp -> BinOp") {
		t.Error("DOT should keep the BinOp self-loop")
	}
	if !strings.Contains(out, Color(0)) {
		t.Error("DOT should carry palette colours")
	}
}

func TestToMermaidAndJSON(t *testing.T) {
	g := Summarize(parse(t, "y = 1\n"), DefaultPaletteSize)
	if m := ToMermaid(g); !strings.Contains(m, "Module --> Assign") {
		t.Errorf("mermaid = %s", m)
	}
	out, err := ToJSON(g)
	if err != nil {
		t.Fatal(err)
	}
	var decoded models.StructuralGraph
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Vertices) != len(g.Vertices) || decoded.TotalNodes != g.TotalNodes {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestDirectedAdapter(t *testing.T) {
	g := Summarize(parse(t, "x = a + b + c\n"), DefaultPaletteSize)
	d := NewDirected(g)
	binop, _ := g.Vertex("BinOp")
	name, _ := g.Vertex("Name")

	if !d.HasEdgeFromTo(binop.ID, binop.ID) {
		t.Error("self-loop missing")
	}
	if !d.HasEdgeFromTo(binop.ID, name.ID) || d.HasEdgeFromTo(name.ID, binop.ID) {
		t.Error("direction mismatch")
	}
	if !d.HasEdgeBetween(name.ID, binop.ID) {
		t.Error("HasEdgeBetween should ignore direction")
	}
	if d.Edge(name.ID, binop.ID) != nil {
		t.Error("Edge should be nil for a missing edge")
	}
	if d.Nodes().Len() != len(g.Vertices) {
		t.Errorf("Nodes().Len() = %d", d.Nodes().Len())
	}
	if d.From(name.ID).Len() != 0 {
		t.Error("Name has no children")
	}
	if d.Node(99) != nil {
		t.Error("unknown id should return nil")
	}
}

func TestCalculateMetrics(t *testing.T) {
	g := Summarize(parse(t, "x = a + b + c\n"), DefaultPaletteSize)
	m := CalculateMetrics(g)
	if m.Summary.TotalVertices != 4 || m.Summary.TotalEdges != 5 {
		t.Errorf("summary = %+v", m.Summary)
	}
	for _, vm := range m.VertexMetrics {
		if vm.PageRank <= 0 {
			t.Errorf("%s PageRank = %f", vm.Label, vm.PageRank)
		}
		if vm.Label == "BinOp" && !vm.Recursive {
			t.Error("BinOp should be recursive")
		}
	}
	if m.Summary.IsCyclic {
		t.Error("a tree summary without mutual containment is acyclic")
	}
}

func TestCalculateMetricsCycle(t *testing.T) {
	// Call contains Lambda contains Call.
	g := Summarize(parse(t, "f(lambda: g())\n"), DefaultPaletteSize)
	m := CalculateMetrics(g)
	if !m.Summary.IsCyclic {
		t.Fatalf("expected a Call/Lambda cycle: %+v", m.Summary)
	}
}

func TestCalculateMetricsEmpty(t *testing.T) {
	m := CalculateMetrics(models.NewStructuralGraph(20))
	if m.Summary.TotalVertices != 0 || len(m.VertexMetrics) != 0 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestColorWraps(t *testing.T) {
	if Color(20) != Color(0) || Color(-1) != Color(0) {
		t.Error("Color should wrap")
	}
}
