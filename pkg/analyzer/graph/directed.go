package graph

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/preciselake/preciselake/pkg/models"
)

// kindNode is a StructuralGraph vertex seen through gonum.
type kindNode struct {
	v models.GraphVertex
}

func (n kindNode) ID() int64 { return n.v.ID }

// DOTID implements dot.Node.
func (n kindNode) DOTID() string { return n.v.Label }

// Attributes implements encoding.Attributer.
func (n kindNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "style", Value: "filled"},
		{Key: "fillcolor", Value: fmt.Sprintf("%q", Color(n.v.PaletteIndex))},
		{Key: "tooltip", Value: fmt.Sprintf("\"order %d\"", n.v.Order)},
	}
}

// Directed adapts a StructuralGraph to gonum's graph.Directed. Unlike
// simple.DirectedGraph it keeps self-loops, which are common here (a BinOp
// inside a BinOp).
type Directed struct {
	g     *models.StructuralGraph
	nodes map[int64]kindNode
	from  map[int64][]int64
	to    map[int64][]int64
	edges map[[2]int64]bool
}

var _ graph.Directed = (*Directed)(nil)

// NewDirected builds the adapter. The StructuralGraph must not change
// while the adapter is in use.
func NewDirected(g *models.StructuralGraph) *Directed {
	d := &Directed{
		g:     g,
		nodes: make(map[int64]kindNode, len(g.Vertices)),
		from:  make(map[int64][]int64),
		to:    make(map[int64][]int64),
		edges: make(map[[2]int64]bool, len(g.Edges)),
	}
	for _, v := range g.Vertices {
		d.nodes[v.ID] = kindNode{v}
	}
	for _, e := range g.Edges {
		from, okFrom := g.Vertex(e.From)
		to, okTo := g.Vertex(e.To)
		if !okFrom || !okTo {
			continue
		}
		d.from[from.ID] = append(d.from[from.ID], to.ID)
		d.to[to.ID] = append(d.to[to.ID], from.ID)
		d.edges[[2]int64{from.ID, to.ID}] = true
	}
	return d
}

func (d *Directed) collect(ids []int64) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = d.nodes[id]
	}
	return iterator.NewOrderedNodes(nodes)
}

// Node implements graph.Graph.
func (d *Directed) Node(id int64) graph.Node {
	n, ok := d.nodes[id]
	if !ok {
		return nil
	}
	return n
}

// Nodes implements graph.Graph. Nodes come back in first-visit order.
func (d *Directed) Nodes() graph.Nodes {
	if len(d.g.Vertices) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(d.g.Vertices))
	for i, v := range d.g.Vertices {
		nodes[i] = d.nodes[v.ID]
	}
	return iterator.NewOrderedNodes(nodes)
}

// From implements graph.Graph.
func (d *Directed) From(id int64) graph.Nodes { return d.collect(d.from[id]) }

// To implements graph.Directed.
func (d *Directed) To(id int64) graph.Nodes { return d.collect(d.to[id]) }

// HasEdgeBetween implements graph.Graph.
func (d *Directed) HasEdgeBetween(xid, yid int64) bool {
	return d.edges[[2]int64{xid, yid}] || d.edges[[2]int64{yid, xid}]
}

// HasEdgeFromTo implements graph.Directed.
func (d *Directed) HasEdgeFromTo(uid, vid int64) bool {
	return d.edges[[2]int64{uid, vid}]
}

// Edge implements graph.Graph.
func (d *Directed) Edge(uid, vid int64) graph.Edge {
	if !d.edges[[2]int64{uid, vid}] {
		return nil
	}
	return simple.Edge{F: d.nodes[uid], T: d.nodes[vid]}
}
