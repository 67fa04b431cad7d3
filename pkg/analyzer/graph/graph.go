// Package graph summarizes a syntax tree as a graph of node kinds and
// exports it for rendering.
package graph

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// DefaultPaletteSize matches the tab20 palette.
const DefaultPaletteSize = 20

// Analyzer builds structural graphs from syntax trees.
type Analyzer struct {
	paletteSize int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithPaletteSize sets the number of palette slots vertices are spread over.
func WithPaletteSize(n int) Option {
	return func(a *Analyzer) {
		a.paletteSize = n
	}
}

// New creates a new graph analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{paletteSize: DefaultPaletteSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze summarizes unit with the analyzer's palette size.
func (a *Analyzer) Analyze(unit *ast.Unit) *models.StructuralGraph {
	return Summarize(unit, a.paletteSize)
}

// Summarize walks the tree in pre-order. Each node kind becomes one vertex,
// ordered by the ordinal of its first node; each parent kind to child kind
// relation becomes one edge.
func Summarize(unit *ast.Unit, paletteSize int) *models.StructuralGraph {
	g := models.NewStructuralGraph(paletteSize)
	ordinal := 0
	ast.Inspect(unit.Root, func(n *ast.Node) bool {
		label := n.Kind().String()
		g.AddVertex(label, ordinal)
		if p := n.Parent(); p != nil {
			g.AddEdge(p.Kind().String(), label)
		}
		ordinal++
		return true
	})
	g.AssignPalette(ordinal)
	return g
}

// ToDOT renders g in Graphviz DOT with vertices filled from the palette.
func ToDOT(g *models.StructuralGraph, name string) (string, error) {
	b, err := dot.Marshal(NewDirected(g), name, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal DOT: %w", err)
	}
	return string(b), nil
}

// ToMermaid renders g as a Mermaid flowchart.
func ToMermaid(g *models.StructuralGraph) string {
	return g.ToMermaid()
}

// ToJSON renders g as indented JSON.
func ToJSON(g *models.StructuralGraph) (string, error) {
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal graph: %w", err)
	}
	return string(b), nil
}

// CalculateMetrics computes PageRank, degrees and kind cycles.
func CalculateMetrics(g *models.StructuralGraph) *Metrics {
	metrics := &Metrics{
		VertexMetrics: make([]VertexMetric, 0, len(g.Vertices)),
		Summary: Summary{
			TotalVertices: len(g.Vertices),
			TotalEdges:    len(g.Edges),
			TotalNodes:    g.TotalNodes,
		},
	}
	if len(g.Vertices) == 0 {
		return metrics
	}

	d := NewDirected(g)
	pageRank := network.PageRank(d, 0.85, 1e-6)

	inDegree := make(map[string]int)
	outDegree := make(map[string]int)
	for _, e := range g.Edges {
		inDegree[e.To]++
		outDegree[e.From]++
	}

	totalDegree := 0
	for _, v := range g.Vertices {
		metrics.VertexMetrics = append(metrics.VertexMetrics, VertexMetric{
			Label:     v.Label,
			PageRank:  pageRank[v.ID],
			InDegree:  inDegree[v.Label],
			OutDegree: outDegree[v.Label],
			Recursive: g.HasEdge(v.Label, v.Label),
		})
		totalDegree += inDegree[v.Label] + outDegree[v.Label]
	}
	n := len(g.Vertices)
	metrics.Summary.AvgDegree = float64(totalDegree) / float64(n)
	// Self-loops are allowed, so the edge bound is V*V.
	metrics.Summary.Density = float64(len(g.Edges)) / float64(n*n)

	for _, scc := range topo.TarjanSCC(d) {
		if len(scc) < 2 {
			continue
		}
		cycle := make([]string, len(scc))
		for i, node := range scc {
			cycle[i] = node.(kindNode).v.Label
		}
		metrics.Summary.Cycles = append(metrics.Summary.Cycles, cycle)
	}
	metrics.Summary.CycleCount = len(metrics.Summary.Cycles)
	metrics.Summary.IsCyclic = metrics.Summary.CycleCount > 0
	return metrics
}
