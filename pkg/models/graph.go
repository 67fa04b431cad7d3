package models

import (
	"fmt"
	"strings"
)

// GraphVertex is one node kind seen in a tree.
type GraphVertex struct {
	ID           int64  `json:"id"`
	Label        string `json:"label"`
	Order        int    `json:"order"`
	PaletteIndex int    `json:"palette_index"`
}

// GraphEdge is a directed parent-kind to child-kind relation.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StructuralGraph summarizes which node kinds contain which.
// Vertices are in first-visit order; edges in first-seen order.
type StructuralGraph struct {
	Vertices    []GraphVertex `json:"vertices"`
	Edges       []GraphEdge   `json:"edges"`
	TotalNodes  int           `json:"total_nodes"`
	PaletteSize int           `json:"palette_size"`

	index map[string]int
	edges map[GraphEdge]struct{}
}

// NewStructuralGraph creates an empty graph.
func NewStructuralGraph(paletteSize int) *StructuralGraph {
	return &StructuralGraph{
		Vertices:    make([]GraphVertex, 0),
		Edges:       make([]GraphEdge, 0),
		PaletteSize: paletteSize,
		index:       make(map[string]int),
		edges:       make(map[GraphEdge]struct{}),
	}
}

// AddVertex records label at the given first-visit order. Later calls for
// the same label are ignored. It reports whether a vertex was created.
func (g *StructuralGraph) AddVertex(label string, order int) bool {
	if _, ok := g.index[label]; ok {
		return false
	}
	g.index[label] = len(g.Vertices)
	g.Vertices = append(g.Vertices, GraphVertex{
		ID:    int64(len(g.Vertices)),
		Label: label,
		Order: order,
	})
	return true
}

// AddEdge records from -> to once.
func (g *StructuralGraph) AddEdge(from, to string) bool {
	e := GraphEdge{From: from, To: to}
	if _, ok := g.edges[e]; ok {
		return false
	}
	g.edges[e] = struct{}{}
	g.Edges = append(g.Edges, e)
	return true
}

// Vertex looks up a vertex by label.
func (g *StructuralGraph) Vertex(label string) (GraphVertex, bool) {
	i, ok := g.index[label]
	if !ok {
		return GraphVertex{}, false
	}
	return g.Vertices[i], true
}

// HasEdge reports whether from -> to was recorded.
func (g *StructuralGraph) HasEdge(from, to string) bool {
	_, ok := g.edges[GraphEdge{From: from, To: to}]
	return ok
}

// AssignPalette sets PaletteIndex = Order * PaletteSize / TotalNodes on
// every vertex.
func (g *StructuralGraph) AssignPalette(totalNodes int) {
	g.TotalNodes = totalNodes
	for i := range g.Vertices {
		if totalNodes <= 0 || g.PaletteSize <= 0 {
			g.Vertices[i].PaletteIndex = 0
			continue
		}
		g.Vertices[i].PaletteIndex = g.Vertices[i].Order * g.PaletteSize / totalNodes
	}
}

// ToMermaid generates Mermaid diagram syntax from the graph.
func (g *StructuralGraph) ToMermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, v := range g.Vertices {
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", sanitizeMermaidID(v.Label), v.Label)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "    %s --> %s\n", sanitizeMermaidID(e.From), sanitizeMermaidID(e.To))
	}
	return b.String()
}

// sanitizeMermaidID makes an ID safe for Mermaid.
func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
